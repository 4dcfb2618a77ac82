package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks the signature the gateway attaches to a payment confirmation.
// A Verifier built with an empty secret is disabled and accepts everything.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the gateway's shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether signatures are actually checked
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Sign returns the hex HMAC-SHA256 of "orderRef|paymentRef"
func (v *Verifier) Sign(orderRef, paymentRef string) string {
	return hex.EncodeToString(v.mac(orderRef, paymentRef))
}

// Verify reports whether signature is byte-for-byte the lowercase hex HMAC of the pair
func (v *Verifier) Verify(orderRef, paymentRef, signature string) bool {
	if !v.Enabled() {
		return true
	}
	if orderRef == "" || paymentRef == "" || signature == "" {
		return false
	}

	return hmac.Equal([]byte(signature), []byte(v.Sign(orderRef, paymentRef)))
}

func (v *Verifier) mac(orderRef, paymentRef string) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(orderRef + "|" + paymentRef))
	return h.Sum(nil)
}
