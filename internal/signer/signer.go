// Package signer implements the pluggable request-signing scheme used by
// the REST client and the authenticated stream. A concrete exchange is
// just this signer plus a base URL and a handful of field-name mappings,
// so adding a new venue means implementing Signer, not a new client.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Headers names the three HTTP headers a Signer's signature must be
// attached to.
type Headers struct {
	AccessKey string
	Payload   string
	Signature string
}

// Signer produces the payload/signature pair for a signed REST request.
type Signer interface {
	// Sign JSON-encodes params, derives the payload and signature, and
	// returns them for the caller to attach as headers.
	Sign(params map[string]string, secret string) (payload, signature string, err error)
}

// HMACSigner implements the exchange's documented signing scheme: the
// params map is JSON-serialized, base64-encoded to form the payload, and
// HMAC-SHA256(secret, payload) hex-encoded to form the signature.
type HMACSigner struct{}

// Sign implements Signer.
func (HMACSigner) Sign(params map[string]string, secret string) (payload, signature string, err error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", "", fmt.Errorf("marshal signing params: %w", err)
	}
	payload = base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	signature = hex.EncodeToString(mac.Sum(nil))
	return payload, signature, nil
}

// SignNonce produces the hex HMAC-SHA256 signature the authenticated
// stream expects over the decimal string form of nonce.
func SignNonce(nonce int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d", nonce)))
	return hex.EncodeToString(mac.Sum(nil))
}
