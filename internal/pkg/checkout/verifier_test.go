package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func signBody(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"foo":"bar"}`)
	secret := "top-secret"
	validSig := signBody(payload, secret)

	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if VerifyWebhookSignature(payload, validSig, "other-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyWebhookSignature([]byte(`{"foo":"baz"}`), validSig, secret) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyWebhookSignature(payload, "not-hex!!", secret) {
		t.Fatalf("expected undecodable signature to fail")
	}
}

func TestVerifyWebhookSignatureFailsClosed(t *testing.T) {
	payload := []byte(`{"foo":"bar"}`)

	if VerifyWebhookSignature(payload, signBody(payload, ""), "") {
		t.Fatalf("expected missing secret to fail closed")
	}
	if VerifyWebhookSignature(payload, "", "top-secret") {
		t.Fatalf("expected missing signature to fail")
	}
}

func TestVerifierVerify(t *testing.T) {
	secret := "whsec_test"
	v := NewVerifier(secret)
	body := []byte(`{"id":"evt_1","type":"checkout_completed","livemode":true,"payload":{"handle":"acme","email":"owner@acme.test"}}`)

	ev, err := v.Verify(body, signBody(body, secret))
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != EventTypeCheckoutCompleted || !ev.Livemode {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if _, err := v.Verify(body, signBody(body, "wrong")); !errors.Is(err, ErrAuthenticity) {
		t.Fatalf("expected ErrAuthenticity, got %v", err)
	}
}

func TestVerifierVerifyNoSecretRejectsEverything(t *testing.T) {
	v := NewVerifier("")
	body := []byte(`{"id":"evt_1","type":"checkout_completed"}`)

	if _, err := v.Verify(body, signBody(body, "")); !errors.Is(err, ErrAuthenticity) {
		t.Fatalf("expected ErrAuthenticity with empty secret, got %v", err)
	}
}

func TestVerifierVerifyMalformedEvents(t *testing.T) {
	secret := "whsec_test"
	v := NewVerifier(secret)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not-json`},
		{name: "missing id", body: `{"type":"checkout_completed"}`},
		{name: "missing type", body: `{"id":"evt_1"}`},
	}

	for _, tt := range tests {
		body := []byte(tt.body)
		_, err := v.Verify(body, signBody(body, secret))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tt.name, err)
		}
	}
}
