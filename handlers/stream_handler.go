package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/app"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 25 * time.Second

// StreamHandler feeds UI input into the app state and streams re-rendered
// fragments back over server-sent events.
type StreamHandler struct {
	keepAlive time.Duration
	log       zerolog.Logger
}

func NewStreamHandler(log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		keepAlive: keepAliveInterval,
		log:       log.With().Str("handler", "stream").Logger(),
	}
}

type queryRequest struct {
	Query *string `json:"query"`
	City  *string `json:"city"`
}

// Query records a keystroke (debounced) or a city chip (immediate).
func (h *StreamHandler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if req.Query == nil && req.City == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "query or city required")
	}

	cl := clientOf(c)
	if req.City != nil {
		cl.SelectCity(*req.City)
	}
	if req.Query != nil {
		cl.SetQuery(*req.Query)
	}
	return c.JSON(http.StatusAccepted, cl.Filter())
}

type modalRequest struct {
	Open  string `json:"open"`
	Sheet string `json:"sheet"`
}

// Modal opens or closes a dialog. "none" closes whatever is open.
func (h *StreamHandler) Modal(c echo.Context) error {
	var req modalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	m, ok := app.ParseModal(req.Open)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown modal")
	}

	cl := clientOf(c)
	switch m {
	case app.ModalNone:
		cl.CloseModal()
	case app.ModalSheet:
		sheet, err := cl.OpenSheet(req.Sheet)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"modal": m.String(), "sheet": sheet})
	default:
		if !cl.OpenModal(m) {
			return echo.NewHTTPError(http.StatusForbidden, "organizer session required")
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"modal": m.String()})
}

// Stream pushes the visitor's newest gallery and session updates until the
// connection goes away.
func (h *StreamHandler) Stream(c echo.Context) error {
	cl := clientOf(c)
	sub := cl.Subscribe()
	defer cl.Unsubscribe(sub)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	flush(res.Writer)

	ctx := c.Request().Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Ready():
			for _, u := range sub.Drain() {
				if err := writeEvent(res, u); err != nil {
					return nil
				}
			}
			flush(res.Writer)
		case <-ticker.C:
			if _, err := io.WriteString(res, ": ping\n\n"); err != nil {
				return nil
			}
			flush(res.Writer)
		}
	}
}

// writeEvent frames u as one SSE event; multi-line data gets one data
// field per line.
func writeEvent(w io.Writer, u app.Update) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", u.Kind)
	for _, line := range strings.Split(u.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
