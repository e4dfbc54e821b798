package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type DiscountHTTP struct {
	Svc   *service.DiscountService
	Audit *service.AuditService
}

// Verify checks a scanned QR payload without consuming a use. Available to
// any signed-in user at checkout.
func (h *DiscountHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.verify")

	var req struct {
		Payload string `json:"payload"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	discount, err := h.Svc.VerifyQR(ctx, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedQR):
			return echo.NewHTTPError(http.StatusBadRequest, "malformed discount QR payload")
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "discount not found")
		case errors.Is(err, service.ErrInactiveDiscount):
			return echo.NewHTTPError(http.StatusConflict, "discount is not active")
		}
		l.Error("verify_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot verify discount")
	}
	return c.JSON(http.StatusOK, discount)
}

// Redeem verifies the payload and counts the use.
func (h *DiscountHTTP) Redeem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.redeem")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Payload string `json:"payload"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	discount, err := h.Svc.Redeem(ctx, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedQR):
			h.Audit.LogUserAction(ctx, userID, "discount_redeem", req.Payload, "malformed")
			return echo.NewHTTPError(http.StatusBadRequest, "malformed discount QR payload")
		case errors.Is(err, service.ErrNotFound):
			h.Audit.LogUserAction(ctx, userID, "discount_redeem", req.Payload, "not_found")
			return echo.NewHTTPError(http.StatusNotFound, "discount not found")
		case errors.Is(err, service.ErrInactiveDiscount):
			h.Audit.LogUserAction(ctx, userID, "discount_redeem", req.Payload, "inactive")
			return echo.NewHTTPError(http.StatusConflict, "discount is not active")
		}
		l.Error("redeem_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot redeem discount")
	}

	h.Audit.LogUserAction(ctx, userID, "discount_redeem", discount.Name, "ok")
	return c.JSON(http.StatusOK, discount)
}

type AdminDiscountHTTP struct {
	Svc   *service.DiscountService
	Audit *service.AuditService
}

func (h *AdminDiscountHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.discounts.list")

	discounts, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_discounts_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list discounts")
	}
	return c.JSON(http.StatusOK, discounts)
}

func (h *AdminDiscountHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.discounts.create")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name       string `json:"name"`
		Percentage uint   `json:"percentage"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	discount, err := h.Svc.Create(ctx, req.Name, req.Percentage)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "discount name already taken")
		}
		l.Error("create_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create discount")
	}

	h.Audit.LogAdminAction(ctx, adminID, "discount_create", "discount", &discount.ID, discount.Name, "ok")
	return c.JSON(http.StatusCreated, discount)
}

func (h *AdminDiscountHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.discounts.update")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name       *string `json:"name"`
		Percentage *uint   `json:"percentage"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	discount, err := h.Svc.Update(ctx, id, req.Name, req.Percentage)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "discount not found")
		}
		l.Error("update_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update discount")
	}

	h.Audit.LogAdminAction(ctx, adminID, "discount_update", "discount", &discount.ID, discount.Name, "ok")
	return c.JSON(http.StatusOK, discount)
}

func (h *AdminDiscountHTTP) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.discounts.toggle")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	discount, err := h.Svc.ToggleActive(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "discount not found")
		}
		l.Error("toggle_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot toggle discount")
	}

	h.Audit.LogAdminAction(ctx, adminID, "discount_toggle", "discount", &discount.ID, discount.Name, "ok")
	return c.JSON(http.StatusOK, discount)
}

func (h *AdminDiscountHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.discounts.delete")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "discount not found")
		}
		l.Error("delete_discount_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete discount")
	}

	h.Audit.LogAdminAction(ctx, adminID, "discount_delete", "discount", &id, "", "ok")
	return c.NoContent(http.StatusNoContent)
}
