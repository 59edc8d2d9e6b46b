package session

import (
	"strings"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
)

// WhatsApp JIDs keep their transport suffix; Meta page-scoped ids arrive
// as bare digit strings.
const (
	whatsappUserSuffix  = "@s.whatsapp.net"
	whatsappGroupSuffix = "@g.us"
)

// DetectPlatform derives the messaging platform from the shape of the
// transport contact id. Phone numbers stay at 14 digits or fewer; Meta
// scoped ids (PSID, IGSID) are longer, and IGSIDs occupy a numeric range
// that begins with 17.
func DetectPlatform(contactID string) entities.Platform {
	id := strings.TrimSpace(contactID)
	if id == "" {
		return entities.PlatformUnknown
	}

	if strings.HasSuffix(id, whatsappUserSuffix) || strings.HasSuffix(id, whatsappGroupSuffix) {
		return entities.PlatformWhatsApp
	}

	if !isDigits(id) {
		return entities.PlatformUnknown
	}

	if len(id) <= 14 {
		return entities.PlatformWhatsApp
	}
	if strings.HasPrefix(id, "17") {
		return entities.PlatformInstagram
	}
	return entities.PlatformFacebook
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
