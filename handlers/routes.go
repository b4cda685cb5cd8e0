// Package handlers is the HTTP host of the storefront UI: the gallery page,
// the flow endpoints and the live gallery stream.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/app"
	"storefront/internal/status"
	"storefront/security"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type ServerOptions struct {
	EnableMetrics bool
	Limiter       *security.RateLimiter
}

// NewServer builds the echo instance with every route registered.
func NewServer(a *app.App, opts ServerOptions, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(middleware.Recover())
	e.Use(RequestLogger(log))

	pages := NewStorefrontHandler(a, log)
	flows := NewFlowHandler(log)
	stream := NewStreamHandler(log)

	e.GET("/health", pages.Health)
	if opts.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	visitor := ClientSession(a)
	override := APIOverride(log)
	e.GET("/", pages.Index, visitor, override)
	e.GET("/events/:id", pages.EventSheet, visitor, override)
	e.GET("/api/view/events", pages.ViewEvents, visitor, override)
	e.GET("/session", pages.Session, visitor)
	e.POST("/catalog/reload", pages.Reload, visitor)

	var flowMW, authMW []echo.MiddlewareFunc
	if opts.Limiter != nil {
		flowMW = append(flowMW, opts.Limiter.AntiBotMiddleware())
		authMW = append(authMW, opts.Limiter.AuthRateLimit())
	}
	flowMW = append(flowMW, visitor)

	g := e.Group("/flows", flowMW...)
	g.POST("/purchase", flows.Purchase)
	g.POST("/auth/request", flows.RequestCode, authMW...)
	g.POST("/auth/verify", flows.VerifyCode, authMW...)
	g.POST("/auth/cancel", flows.CancelLogin)
	g.POST("/auth/logout", flows.Logout)
	g.POST("/validator/check", flows.CheckTicket)

	e.POST("/ui/query", stream.Query, visitor)
	e.POST("/ui/modal", stream.Modal, visitor)
	e.GET("/ui/stream", stream.Stream, visitor)

	return e
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, app.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, status.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrExhausted), errors.Is(err, status.ErrDecode):
		return http.StatusBadGateway
	case errors.As(err, &he):
		return he.Code
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(log zerolog.Logger) func(c echo.Context, err error) {
	return func(c echo.Context, err error) {
		if c.Response().Committed {
			return
		}

		code := statusFor(err)
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Int("status", code).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]any{"ok": false, "message": msg})
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
