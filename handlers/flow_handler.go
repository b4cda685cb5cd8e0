package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

// FlowHandler exposes the purchase, login and validator flows. Each answers
// with the flow result as JSON; the status code reflects the error class.
type FlowHandler struct {
	log zerolog.Logger
}

func NewFlowHandler(log zerolog.Logger) *FlowHandler {
	return &FlowHandler{log: log.With().Str("handler", "flows").Logger()}
}

type phoneRequest struct {
	Phone string `json:"phone" form:"phone"`
}

type codeRequest struct {
	Code string `json:"code" form:"code"`
}

func (h *FlowHandler) Purchase(c echo.Context) error {
	var req services.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	res, err := clientOf(c).Purchase(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(res.Err), res)
}

func (h *FlowHandler) RequestCode(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	res, err := clientOf(c).RequestCode(c.Request().Context(), req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(res.Err), res)
}

func (h *FlowHandler) VerifyCode(c echo.Context) error {
	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	res, err := clientOf(c).VerifyCode(c.Request().Context(), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(res.Err), res)
}

func (h *FlowHandler) CancelLogin(c echo.Context) error {
	return c.JSON(http.StatusOK, clientOf(c).CancelLogin())
}

func (h *FlowHandler) Logout(c echo.Context) error {
	res, err := clientOf(c).Logout(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(statusFor(res.Err), res)
}

// CheckTicket needs the visitor's validator panel; the backend enforces the
// organizer session on its side too.
func (h *FlowHandler) CheckTicket(c echo.Context) error {
	cl := clientOf(c)
	if !cl.Session.Visibility().ValidatorPanel {
		return echo.NewHTTPError(http.StatusForbidden, "organizer session required")
	}

	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	res, err := cl.CheckTicket(c.Request().Context(), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(res.Err), res)
}
