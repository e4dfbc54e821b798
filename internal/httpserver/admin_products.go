package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
	"github.com/mkraev/veloshop/internal/util"
)

type AdminProductHTTP struct {
	Svc   *service.ProductService
	Audit *service.AuditService
}

// imageFromForm spools an optional uploaded image to a temp file so the
// service can copy it into the product directory. The returned cleanup
// removes the spool file.
func imageFromForm(c echo.Context) (*string, func(), error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, func() {}, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, fmt.Errorf("spool upload: %w", err)
	}
	tmp.Close()

	path := tmp.Name()
	return &path, func() { os.Remove(path) }, nil
}

func (h *AdminProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, false, offset, limit)
	if err != nil {
		l.Error("list_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}
	return c.JSON(http.StatusOK, paginated(items, page, limit, offset, total))
}

func (h *AdminProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	product, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *AdminProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.create")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string  `json:"name"        form:"name"`
		Price       float64 `json:"price"       form:"price"`
		Description string  `json:"description" form:"description"`
		CategoryID  *uint   `json:"category_id" form:"category_id"`
		Stock       uint    `json:"stock"       form:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	imageSource, cleanup, err := imageFromForm(c)
	if err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer cleanup()

	product, err := h.Svc.Create(ctx, service.CreateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		ImageSource: imageSource,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "product name already taken")
		}
		l.Error("create_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.Audit.LogAdminAction(ctx, adminID, "product_create", "product", &product.ID, product.Name, "ok")
	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *AdminProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.update")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name          *string  `json:"name"           form:"name"`
		Price         *float64 `json:"price"          form:"price"`
		Description   *string  `json:"description"    form:"description"`
		CategoryID    *uint    `json:"category_id"    form:"category_id"`
		ClearCategory bool     `json:"clear_category" form:"clear_category"`
		Stock         *uint    `json:"stock"          form:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	imageSource, cleanup, err := imageFromForm(c)
	if err != nil {
		l.Error("update_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer cleanup()

	product, err := h.Svc.Update(ctx, id, service.UpdateProductInput{
		Name:          req.Name,
		Price:         req.Price,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		Stock:         req.Stock,
		ImageSource:   imageSource,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "product name already taken")
		}
		l.Error("update_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	h.Audit.LogAdminAction(ctx, adminID, "product_update", "product", &product.ID, product.Name, "ok")
	return c.JSON(http.StatusOK, product)
}

func (h *AdminProductHTTP) SetListed(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.set_listed")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Listed bool `json:"listed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.SetListed(ctx, id, req.Listed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("set_listed_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	action := "product_unlist"
	if req.Listed {
		action = "product_list"
	}
	h.Audit.LogAdminAction(ctx, adminID, action, "product", &product.ID, product.Name, "ok")
	return c.JSON(http.StatusOK, product)
}

func (h *AdminProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.delete")

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
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	h.Audit.LogAdminAction(ctx, adminID, "product_delete", "product", &id, "", "ok")
	return c.NoContent(http.StatusNoContent)
}
