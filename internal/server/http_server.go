// Package server assembles the echo HTTP server.
package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	echoapi "go.phasenull.dev/portfolio/api/echo"
	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/log"
)

// NewHTTPServer creates the echo router with recovery, request logging and
// CORS, registers the API routes and wraps everything in an http.Server.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, api *echoapi.PortfolioAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := map[string]interface{}{
				"method":  c.Request().Method,
				"path":    c.Request().URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
				"ip":      c.RealIP(),
			}
			ctx := c.Request().Context()
			if err != nil {
				appLogger.Error(ctx, "http request", err, fields)
			} else {
				appLogger.Info(ctx, "http request", fields)
			}
			return err
		}
	})

	// Cross-origin callers only ever read; admin writes are same-origin.
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet},
	}))

	api.RegisterRoutes(e)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
