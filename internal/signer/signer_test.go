package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestHMACSignerMatchesManualComputation(t *testing.T) {
	t.Parallel()

	params := map[string]string{"nonce": "123", "path": "/api/v2/orders"}
	secret := "s3cr3t"

	payload, signature, err := HMACSigner{}.Sign(params, secret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	wantRaw, _ := json.Marshal(params)
	wantPayload := base64.StdEncoding.EncodeToString(wantRaw)
	if payload != wantPayload {
		t.Errorf("payload = %q, want %q", payload, wantPayload)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(wantPayload))
	wantSig := hex.EncodeToString(mac.Sum(nil))
	if signature != wantSig {
		t.Errorf("signature = %q, want %q", signature, wantSig)
	}
}

func TestSignNonceIsDeterministic(t *testing.T) {
	t.Parallel()

	sig1 := SignNonce(1700000000000, "secret")
	sig2 := SignNonce(1700000000000, "secret")
	if sig1 != sig2 {
		t.Errorf("SignNonce should be deterministic for the same inputs")
	}

	sig3 := SignNonce(1700000000001, "secret")
	if sig1 == sig3 {
		t.Errorf("SignNonce should differ for different nonces")
	}
}
