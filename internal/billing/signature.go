package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignBody computes the hex HMAC-SHA256 of a raw webhook body with a shared
// secret, the scheme Coinbase Commerce uses for x-cc-webhook-signature.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySharedSecretSignature checks a header-supplied hex HMAC-SHA256
// signature against the raw body. The body must be the exact unparsed
// request bytes.
//
// PayPal uses this as a placeholder only: real PayPal verification is
// certificate-based and needs the webhook id, not a shared secret.
func VerifySharedSecretSignature(secret string, body []byte, signature string) bool {
	sig := strings.TrimSpace(signature)
	if secret == "" || sig == "" {
		return false
	}
	expected, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
