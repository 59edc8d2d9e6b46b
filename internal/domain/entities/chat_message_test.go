package entities

import (
	"errors"
	"testing"
)

func TestDecodeEnvelope_Text(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"text","text":{"body":"halo, paketnya sudah sampai"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope returned error: %v", err)
	}
	if env.Kind != EnvelopeKindText {
		t.Fatalf("expected kind %q, got %q", EnvelopeKindText, env.Kind)
	}
	if env.Text != "halo, paketnya sudah sampai" {
		t.Fatalf("unexpected text: %q", env.Text)
	}
	if got := env.DisplayText(); got != "halo, paketnya sudah sampai" {
		t.Fatalf("DisplayText = %q", got)
	}
}

func TestDecodeEnvelope_Media(t *testing.T) {
	raw := []byte(`{"type":"image","media":{"url":"https://cdn.example.com/a.jpg","mime_type":"image/jpeg","caption":"struk pembayaran"}}`)

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope returned error: %v", err)
	}
	if env.Kind != EnvelopeKindMedia {
		t.Fatalf("expected kind %q, got %q", EnvelopeKindMedia, env.Kind)
	}
	if env.MediaType != "image" {
		t.Fatalf("unexpected media type: %q", env.MediaType)
	}
	if env.MediaURL != "https://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected media url: %q", env.MediaURL)
	}
	// For media the analyzable text is the caption
	if got := env.DisplayText(); got != "struk pembayaran" {
		t.Fatalf("DisplayText = %q", got)
	}
}

func TestDecodeEnvelope_Unrecognized(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"unknown type tag", []byte(`{"type":"sticker","sticker":{"id":"abc"}}`)},
		{"missing type tag", []byte(`{"text":{"body":"no tag"}}`)},
		{"not json", []byte(`not json at all`)},
		{"empty payload", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeEnvelope(tc.raw); !errors.Is(err, ErrUnrecognizedEnvelope) {
				t.Fatalf("expected ErrUnrecognizedEnvelope, got %v", err)
			}
		})
	}
}

func TestTextEnvelope_EncodeDecode(t *testing.T) {
	payload, err := NewTextEnvelope("terima kasih, barangnya bagus").Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	env, err := DecodeEnvelope(payload)
	if err != nil {
		t.Fatalf("DecodeEnvelope returned error: %v", err)
	}
	if env.Kind != EnvelopeKindText || env.Text != "terima kasih, barangnya bagus" {
		t.Fatalf("round trip mismatch: %+v", env)
	}
}

func TestDecodeEnvelope_MediaWithoutCaption(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"audio","media":{"url":"https://cdn.example.com/v.ogg","mime_type":"audio/ogg"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope returned error: %v", err)
	}
	if got := env.DisplayText(); got != "" {
		t.Fatalf("expected empty display text for captionless media, got %q", got)
	}
}
