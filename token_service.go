package portfolio

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateTokenTTL bounds how long an issued state token stays valid.
const StateTokenTTL = 15 * time.Minute

// sessionKeySuffix separates the session-signing key from the state-signing
// key. A state token must never verify as a session token or vice versa.
const sessionKeySuffix = "-JWT_SESSION"

// StateClaims is the payload of the OAuth state parameter. The challenge id
// rides in the "secret" claim.
type StateClaims struct {
	ChallengeID int64 `json:"secret"`
	jwt.RegisteredClaims
}

// SessionClaims is the payload of the API's own bearer token. The session id
// is the subject.
type SessionClaims struct {
	SessionID int64 `json:"sub"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies both token types with HMAC-SHA256. The
// two keys are derived from one base secret but are distinct.
type TokenService struct {
	stateKey   []byte
	sessionKey []byte
	now        func() time.Time
}

// NewTokenService creates a TokenService from the base signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		stateKey:   []byte(secret),
		sessionKey: []byte(secret + sessionKeySuffix),
		now:        time.Now,
	}
}

var validMethods = []string{jwt.SigningMethodHS256.Alg()}

// SignState mints a state token carrying the challenge id, valid for
// StateTokenTTL.
func (s *TokenService) SignState(challengeID int64) (string, error) {
	now := s.now()
	claims := StateClaims{
		ChallengeID: challengeID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateKey)
}

// VerifyState checks signature and expiry of a state token. Malformed,
// tampered and expired tokens all fail the same way.
func (s *TokenService) VerifyState(token string) (*StateClaims, error) {
	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.stateKey, nil },
		jwt.WithValidMethods(validMethods),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify state token: %w", err)
	}
	return claims, nil
}

// SignSession mints a session token for the given session id. The ttl
// mirrors the provider token lifetime.
func (s *TokenService) SignSession(sessionID int64, ttl time.Duration) (string, error) {
	now := s.now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionKey)
}

// VerifySession checks signature and expiry of a session token.
func (s *TokenService) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.sessionKey, nil },
		jwt.WithValidMethods(validMethods),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify session token: %w", err)
	}
	return claims, nil
}
