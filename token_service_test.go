package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.SignState(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyState(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.ChallengeID)
}

func TestStateTokenExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return issued }
	token, err := svc.SignState(7)
	require.NoError(t, err)

	// Still valid just inside the window.
	svc.now = func() time.Time { return issued.Add(StateTokenTTL - time.Second) }
	_, err = svc.VerifyState(token)
	assert.NoError(t, err)

	// One second past expiry fails.
	svc.now = func() time.Time { return issued.Add(StateTokenTTL + time.Second) }
	_, err = svc.VerifyState(token)
	assert.Error(t, err)
}

func TestSessionTokenExpiry(t *testing.T) {
	svc := NewTokenService("test-secret")
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 7200 * time.Second

	svc.now = func() time.Time { return issued }
	token, err := svc.SignSession(3, ttl)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(ttl - time.Second) }
	claims, err := svc.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.SessionID)

	svc.now = func() time.Time { return issued.Add(ttl + time.Second) }
	_, err = svc.VerifySession(token)
	assert.Error(t, err)
}

func TestTokenKeySeparation(t *testing.T) {
	svc := NewTokenService("test-secret")

	stateToken, err := svc.SignState(1)
	require.NoError(t, err)
	sessionToken, err := svc.SignSession(1, time.Hour)
	require.NoError(t, err)

	// A state token must not be replayable as a session token and vice
	// versa, even though both are HS256 over the same base secret.
	_, err = svc.VerifySession(stateToken)
	assert.Error(t, err)
	_, err = svc.VerifyState(sessionToken)
	assert.Error(t, err)
}

func TestVerifyStateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.VerifyState(token)
		assert.Error(t, err, "token %q should not verify", token)
	}
}

func TestVerifyStateRejectsTamperedSecret(t *testing.T) {
	good := NewTokenService("test-secret")
	evil := NewTokenService("other-secret")

	token, err := evil.SignState(99)
	require.NoError(t, err)

	_, err = good.VerifyState(token)
	assert.Error(t, err)
}
