package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type AdminCategoryHTTP struct {
	Svc   *service.CategoryService
	Audit *service.AuditService
}

func (h *AdminCategoryHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.list")

	categories, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_categories_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *AdminCategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.create")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.Create(ctx, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "category name already taken")
		}
		l.Error("create_category_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}

	h.Audit.LogAdminAction(ctx, adminID, "category_create", "category", &category.ID, category.Name, "ok")
	return c.JSON(http.StatusCreated, category)
}

func (h *AdminCategoryHTTP) Rename(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.rename")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.Rename(ctx, id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "category name already taken")
		}
		l.Error("rename_category_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot rename category")
	}

	h.Audit.LogAdminAction(ctx, adminID, "category_rename", "category", &category.ID, category.Name, "ok")
	return c.JSON(http.StatusOK, category)
}

func (h *AdminCategoryHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.delete")

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
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("delete_category_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete category")
	}

	h.Audit.LogAdminAction(ctx, adminID, "category_delete", "category", &id, "", "ok")
	return c.NoContent(http.StatusNoContent)
}
