package portfolio

import (
	"crypto/sha256"
	"encoding/base64"
)

// CodeChallengeS256 derives the PKCE code challenge from a verifier:
// base64url(SHA-256(verifier)) without padding.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
