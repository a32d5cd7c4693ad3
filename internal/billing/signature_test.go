package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySharedSecretSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"event":{"id":"evt_1"}}`)
	sig := SignBody("secret", body)

	assert.True(t, VerifySharedSecretSignature("secret", body, sig))
	assert.True(t, VerifySharedSecretSignature("secret", body, "  "+sig+"  "), "whitespace is trimmed")
}

func TestVerifySharedSecretSignatureRejects(t *testing.T) {
	body := []byte(`{"event":{"id":"evt_1"}}`)
	sig := SignBody("secret", body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
	}{
		{"wrong secret", "other", body, sig},
		{"tampered body", "secret", []byte(`{"event":{"id":"evt_2"}}`), sig},
		{"empty signature", "secret", body, ""},
		{"empty secret", "", body, sig},
		{"not hex", "secret", body, "zzzz"},
		{"truncated", "secret", body, sig[:16]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySharedSecretSignature(tt.secret, tt.body, tt.signature))
		})
	}
}

func TestVerifySharedSecretSignatureCaseInsensitiveHex(t *testing.T) {
	body := []byte("payload")
	sig := SignBody("secret", body)
	upper := ""
	for _, r := range sig {
		if 'a' <= r && r <= 'f' {
			upper += string(r - 32)
		} else {
			upper += string(r)
		}
	}
	assert.True(t, VerifySharedSecretSignature("secret", body, upper))
}
