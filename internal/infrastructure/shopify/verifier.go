package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"polyglot-shopify-sync/internal/domain"
)

// WebhookVerifier checks webhook HMAC signatures against the shared secret.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the given webhook secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks the base64-encoded HMAC-SHA256 header against the raw body.
// Returns domain.ErrSignatureInvalid on mismatch.
func (v *WebhookVerifier) Verify(body []byte, hmacHeader string) error {
	if hmacHeader == "" {
		return domain.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hmacHeader)) {
		return domain.ErrSignatureInvalid
	}
	return nil
}
