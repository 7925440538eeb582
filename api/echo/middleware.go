package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	portfolio "go.phasenull.dev/portfolio"
	apierrors "go.phasenull.dev/portfolio/errors"
)

// sessionClaimsKey is the echo context key the guard stores claims under.
const sessionClaimsKey = "session_claims"

// RequireSession gates a route group behind a valid session token. The
// decoded claims are attached to the request context; no database lookup
// happens here.
func RequireSession(tokens *portfolio.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apiError(c, apierrors.Auth("Authorization header is missing."))
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return apiError(c, apierrors.Auth("Invalid Authorization header format."))
			}
			claims, err := tokens.VerifySession(parts[1])
			if err != nil {
				// One opaque message for bad signature, expiry and garbage.
				return apiError(c, apierrors.Auth("Invalid token."))
			}
			c.Set(sessionClaimsKey, claims)
			return next(c)
		}
	}
}

// SessionFromContext returns the claims attached by RequireSession.
func SessionFromContext(c echo.Context) (*portfolio.SessionClaims, bool) {
	claims, ok := c.Get(sessionClaimsKey).(*portfolio.SessionClaims)
	return claims, ok
}
