package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"storefront/internal/app"
	"storefront/internal/status"
	"storefront/models"
	"storefront/services"
	"storefront/views"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

type StorefrontHandler struct {
	app *app.App
	log zerolog.Logger
}

func NewStorefrontHandler(a *app.App, log zerolog.Logger) *StorefrontHandler {
	return &StorefrontHandler{app: a, log: log.With().Str("handler", "storefront").Logger()}
}

func (h *StorefrontHandler) Index(c echo.Context) error {
	page, err := clientOf(c).Page("")
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, page)
}

// EventSheet serves the page with the detail sheet of one event open. An
// unknown id renders the plain gallery with a 404.
func (h *StorefrontHandler) EventSheet(c echo.Context) error {
	code := http.StatusOK
	page, err := clientOf(c).Page(c.PathParam("id"))
	if err != nil {
		if !errors.Is(err, status.ErrNotFound) {
			return err
		}
		code = http.StatusNotFound
	}
	return h.render(c, code, page)
}

func (h *StorefrontHandler) render(c echo.Context, code int, page views.PageView) error {
	var buf bytes.Buffer
	if err := h.app.Renderer.Page(&buf, page); err != nil {
		return err
	}
	return c.HTML(code, buf.String())
}

// ViewEvents returns the filtered catalog as JSON without touching the
// visitor's filter.
func (h *StorefrontHandler) ViewEvents(c echo.Context) error {
	f := models.FilterState{City: c.QueryParam("city"), Query: c.QueryParam("q")}
	if f.City == "" {
		f.City = models.AllCities
	}

	catalog := clientOf(c).Catalog()
	events := services.FilterEvents(catalog.Events(), f)
	return c.JSON(http.StatusOK, map[string]any{
		"events":      events,
		"cities":      catalog.Cities(),
		"placeholder": catalog.IsPlaceholder(),
		"loaded_at":   catalog.LoadedAt(),
	})
}

func (h *StorefrontHandler) Session(c echo.Context) error {
	cl := clientOf(c)
	sess := cl.Session.State()
	otpState, _ := cl.OTP.State()
	modal, sheetID := cl.Modal()

	return c.JSON(http.StatusOK, map[string]any{
		"session":    sess,
		"visibility": cl.Session.Visibility(),
		"otp":        otpState.String(),
		"modal":      modal.String(),
		"sheet":      sheetID,
	})
}

func (h *StorefrontHandler) Health(c echo.Context) error {
	if err := h.app.Healthy(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"events":      h.app.Catalog.Len(),
		"placeholder": h.app.Catalog.IsPlaceholder(),
	})
}

func (h *StorefrontHandler) Reload(c echo.Context) error {
	res, err := clientOf(c).Reload(c.Request().Context())
	if err != nil {
		return err
	}

	out := map[string]any{
		"events":      res.Events,
		"placeholder": res.Placeholder,
		"source":      res.Source,
	}
	if res.Err != nil {
		out["error"] = res.Err.Error()
	}
	return c.JSON(http.StatusOK, out)
}
