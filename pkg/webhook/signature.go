// Package webhook implements the shared-secret signing scheme used on
// both legs of the transport bridge: inbound messages are verified,
// outbound reply forwards are signed.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC of the request body.
const SignatureHeader = "X-Chatdesk-Signature"

// Sign returns the sha256 HMAC hex signature of payload
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a sha256 HMAC hex signature against payload and secret
func Verify(secret string, payload []byte, signatureHex string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(signatureHex))
}
