package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway callback signatures: hex(HMAC-SHA256(secret, intentID|paymentID)).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign returns the signature the gateway issues for the pair.
func (v *Verifier) Sign(intentID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the pair exactly.
func (v *Verifier) Verify(intentID, paymentID, signature string) bool {
	return hmac.Equal([]byte(v.Sign(intentID, paymentID)), []byte(signature))
}
