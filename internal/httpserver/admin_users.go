package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type AdminUserHTTP struct {
	Svc   *service.UserService
	Audit *service.AuditService
}

func (h *AdminUserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.list")

	users, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_users_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminUserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.create")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Age       int    `json:"age"`
		Role      string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Role == "" {
		req.Role = "user"
	}

	user, err := h.Svc.Create(ctx, service.CreateUserInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		l.Error("create_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	h.Audit.LogAdminAction(ctx, adminID, "user_create", "user", &user.ID, user.Username, "ok")
	return c.JSON(http.StatusCreated, user)
}

func (h *AdminUserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.update")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Age       *int    `json:"age"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, id, service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("update_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}

	h.Audit.LogAdminAction(ctx, adminID, "user_update", "user", &user.ID, user.Username, "ok")
	return c.JSON(http.StatusOK, user)
}

func (h *AdminUserHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.set_role")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.SetRole(ctx, id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrLastAdmin):
			h.Audit.LogAdminAction(ctx, adminID, "user_set_role", "user", &id, req.Role, "last_admin")
			return echo.NewHTTPError(http.StatusConflict, "cannot demote the last admin")
		}
		l.Error("set_role_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}

	h.Audit.LogAdminAction(ctx, adminID, "user_set_role", "user", &user.ID, user.Role, "ok")
	return c.JSON(http.StatusOK, user)
}

func (h *AdminUserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.delete")

	adminID, err := UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrLastAdmin):
			h.Audit.LogAdminAction(ctx, adminID, "user_delete", "user", &id, "", "last_admin")
			return echo.NewHTTPError(http.StatusConflict, "cannot delete the last admin")
		}
		l.Error("delete_user_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
	}

	h.Audit.LogAdminAction(ctx, adminID, "user_delete", "user", &id, "", "ok")
	return c.NoContent(http.StatusNoContent)
}
