package handlers

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/app"
	"storefront/utils"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"

	// CookieClient carries the visitor id.
	CookieClient = "sf_client"
	ctxClient    = "client"

	clientCookieMaxAge = 30 * 24 * 60 * 60
)

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = utils.RequestID()
			}
			c.Response().Header().Set(HeaderRequestID, id)
			c.Set(ctxRequestID, id)

			err := next(c)

			code := c.Response().Status
			if err != nil {
				code = statusFor(err)
			}
			evt := log.Info()
			if code >= 500 {
				evt = log.Warn()
			}
			evt.Str("request_id", id).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", code).
				Dur("latency", time.Since(start)).
				Msg("http request")
			return err
		}
	}
}

// ClientSession binds the request to the visitor's state. A missing or
// malformed id cookie gets a fresh id.
func ClientSession(a *app.App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if ck, err := c.Cookie(CookieClient); err == nil && app.ValidClientID(ck.Value) {
				id = ck.Value
			}
			if id == "" {
				id = app.NewClientID()
				c.SetCookie(&http.Cookie{
					Name:     CookieClient,
					Value:    id,
					Path:     "/",
					MaxAge:   clientCookieMaxAge,
					HttpOnly: true,
					Secure:   c.Request().TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
			}

			cl, err := a.Client(c.Request().Context(), id)
			if err != nil {
				return err
			}
			c.Set(ctxClient, cl)
			return next(c)
		}
	}
}

// clientOf returns the visitor bound by ClientSession.
func clientOf(c echo.Context) *app.Client {
	cl, _ := c.Get(ctxClient).(*app.Client)
	return cl
}

// APIOverride honours the ?api= query parameter for the requesting visitor
// only. A refused base is logged and ignored.
func APIOverride(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if api := c.QueryParam("api"); api != "" {
				_, err := clientOf(c).UseAPIBase(c.Request().Context(), api)
				if errors.Is(err, app.ErrOverrideRefused) {
					log.Warn().Str("api", api).Str("ip", c.RealIP()).Msg("api override refused")
				}
			}
			return next(c)
		}
	}
}
