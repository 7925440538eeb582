package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	portfolio "go.phasenull.dev/portfolio"
	echoapi "go.phasenull.dev/portfolio/api/echo"
	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/log"
)

func newTestServer(t *testing.T) *http.Server {
	t.Helper()
	cfg := &config.ServerConfig{
		HTTPPort:    "8080",
		CORSOrigins: []string{"https://phasenull.dev"},
	}
	api := echoapi.NewPortfolioAPI(cfg, nil, portfolio.NewTokenService("server-test"),
		nil, nil, nil, nil, nil, nil)
	return NewHTTPServer(cfg, log.NewZerologAdapter(zerolog.Disabled, false), api)
}

func TestCORSPreflightAllowsGetOnly(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set(echo.HeaderOrigin, "https://phasenull.dev")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodDelete)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://phasenull.dev", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, http.MethodGet, rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(echo.HeaderOrigin, "https://phasenull.dev")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://phasenull.dev", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
