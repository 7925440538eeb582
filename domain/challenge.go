package domain

import (
	"crypto/rand"
	"errors"
	"time"
)

// ErrChallengeNotFound is returned when no unused challenge matches the
// given id and origin IP.
var ErrChallengeNotFound = errors.New("challenge not found")

// Challenge is a single pending login attempt. The secret is the PKCE code
// verifier; used_at is set exactly once when the challenge is redeemed
// during callback processing. Rows are never deleted.
type Challenge struct {
	ID        int64      `db:"id"         json:"id"`
	Secret    string     `db:"secret"     json:"-"`
	IP        string     `db:"ip"         json:"ip"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UsedAt    *time.Time `db:"used_at"    json:"used_at"`
}

// verifierAlphabet is the unreserved character set allowed for PKCE code
// verifiers (RFC 7636 section 4.1).
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// VerifierLength is the length of generated code verifiers.
const VerifierLength = 20

// NewCodeVerifier generates a random PKCE code verifier of n characters.
func NewCodeVerifier(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = verifierAlphabet[int(b)%len(verifierAlphabet)]
	}
	return string(buf), nil
}
