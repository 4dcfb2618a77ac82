package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyAcceptsRecomputedSignature(t *testing.T) {
	v := NewVerifier("s3cret")
	sig := v.Sign("order_A", "pay_B")

	assert.True(t, v.Verify("order_A", "pay_B", sig))
}

func TestVerifyRejectsTampering(t *testing.T) {
	v := NewVerifier("s3cret")
	sig := v.Sign("order_A", "pay_B")

	tests := []struct {
		name       string
		orderRef   string
		paymentRef string
		signature  string
	}{
		{"tampered order ref", "order_X", "pay_B", sig},
		{"tampered payment ref", "order_A", "pay_X", sig},
		{"tampered signature", "order_A", "pay_B", flipFirst(sig)},
		{"signed with other secret", "order_A", "pay_B", NewVerifier("other").Sign("order_A", "pay_B")},
		{"refs swapped", "pay_B", "order_A", sig},
		{"not hex", "order_A", "pay_B", "zz-not-hex"},
		{"empty signature", "order_A", "pay_B", ""},
		{"truncated", "order_A", "pay_B", sig[:10]},
		{"uppercased", "order_A", "pay_B", strings.ToUpper(sig)},
		{"mixed case", "order_A", "pay_B", upperLetters(sig, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Verify(tt.orderRef, tt.paymentRef, tt.signature))
		})
	}
}

func TestVerifierDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("")

	assert.False(t, v.Enabled())
	assert.True(t, v.Verify("order_A", "pay_B", "anything"))
}

func TestSignIsLowercaseHex(t *testing.T) {
	sig := NewVerifier("k").Sign("a", "b")
	assert.Len(t, sig, 64)
	assert.Regexp(t, "^[0-9a-f]+$", sig)
}

func flipFirst(sig string) string {
	if sig[0] == 'a' {
		return "b" + sig[1:]
	}
	return "a" + sig[1:]
}

// upperLetters uppercases the first n hex letters of sig
func upperLetters(sig string, n int) string {
	b := []byte(sig)
	for i := range b {
		if n == 0 {
			break
		}
		if b[i] >= 'a' && b[i] <= 'f' {
			b[i] -= 'a' - 'A'
			n--
		}
	}
	return string(b)
}
