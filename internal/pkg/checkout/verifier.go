package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Verifier authenticates inbound webhooks against the shared verification
// secret and decodes them into typed events.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier for the given webhook secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

// Verify checks the provider signature over the exact raw body and decodes
// the event. It fails closed: no secret configured means no event is ever
// accepted.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) (*Event, error) {
	if !VerifyWebhookSignature(rawBody, signatureHeader, v.secret) {
		return nil, ErrAuthenticity
	}

	var ev Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, &ValidationError{Reason: "event body is not valid JSON: " + err.Error()}
	}
	if strings.TrimSpace(ev.ID) == "" {
		return nil, &ValidationError{Reason: "event id is missing"}
	}
	if strings.TrimSpace(ev.Type) == "" {
		return nil, &ValidationError{Reason: "event type is missing"}
	}
	return &ev, nil
}

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 signature the
// provider computes over the raw request body.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
