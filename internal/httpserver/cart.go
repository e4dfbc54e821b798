package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type CartHTTP struct {
	Svc   *service.CartService
	Audit *service.AuditService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	items, err := h.Svc.Items(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Add(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrStockExceeded):
			h.Audit.LogUserAction(ctx, userID, "cart_add",
				fmt.Sprintf("product %d qty %d", req.ProductID, req.Quantity), "stock_exceeded")
			return echo.NewHTTPError(http.StatusConflict, "quantity exceeds available stock")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Audit.LogUserAction(ctx, userID, "cart_add",
		fmt.Sprintf("product %d qty %d", item.ProductID, item.Quantity), "ok")
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, removed, err := h.Svc.SetQuantity(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		case errors.Is(err, service.ErrStockExceeded):
			return echo.NewHTTPError(http.StatusConflict, "quantity exceeds available stock")
		}
		l.Error("set_quantity_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if removed {
		h.Audit.LogUserAction(ctx, userID, "cart_remove",
			fmt.Sprintf("product %d", req.ProductID), "ok")
		return c.JSON(http.StatusOK, "item removed")
	}
	h.Audit.LogUserAction(ctx, userID, "cart_update",
		fmt.Sprintf("product %d qty %d", item.ProductID, item.Quantity), "ok")
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Clear(ctx, userID); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Audit.LogUserAction(ctx, userID, "cart_clear", "", "ok")
	return c.JSON(http.StatusOK, "cart cleared")
}
