package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfolio "go.phasenull.dev/portfolio"
)

func guardedEcho(t *testing.T, tokens *portfolio.TokenService) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/guarded", func(c echo.Context) error {
		claims, ok := SessionFromContext(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"session_id": claims.SessionID})
	}, RequireSession(tokens))
	return e
}

func doGuarded(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestRequireSessionMissingHeader(t *testing.T) {
	tokens := portfolio.NewTokenService("guard-secret")
	rec := doGuarded(guardedEcho(t, tokens), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header is missing.", decodeMessage(t, rec))
}

func TestRequireSessionBadFormat(t *testing.T) {
	tokens := portfolio.NewTokenService("guard-secret")
	e := guardedEcho(t, tokens)

	for _, header := range []string{"token-without-scheme", "Basic abc", "Bearer "} {
		rec := doGuarded(e, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "Invalid Authorization header format.", decodeMessage(t, rec))
	}
}

func TestRequireSessionInvalidToken(t *testing.T) {
	tokens := portfolio.NewTokenService("guard-secret")
	e := guardedEcho(t, tokens)

	other := portfolio.NewTokenService("different-secret")
	foreign, err := other.SignSession(5, time.Hour)
	require.NoError(t, err)

	// State tokens must not pass the session guard even though they share
	// the base secret.
	state, err := tokens.SignState(5)
	require.NoError(t, err)

	for _, token := range []string{"garbage", foreign, state} {
		rec := doGuarded(e, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token.", decodeMessage(t, rec))
	}
}

func TestRequireSessionAcceptsValidToken(t *testing.T) {
	tokens := portfolio.NewTokenService("guard-secret")
	token, err := tokens.SignSession(42, time.Hour)
	require.NoError(t, err)

	rec := doGuarded(guardedEcho(t, tokens), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":42}`, rec.Body.String())
}
