package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type AuthHTTP struct {
	Svc   *service.AuthService
	Audit *service.AuditService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Age       int    `json:"age"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_failed", "status", 409, "reason", "user_exists")
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		l.Error("register_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Audit.LogUserAction(ctx, user.ID, "register", "account created", "ok")
	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_failed", "status", 401, "username", req.Username)
			if user, ferr := h.Svc.Repo.FindUserByUsername(ctx, req.Username); ferr == nil {
				h.Audit.LogUserAction(ctx, user.ID, "login", "wrong password", "failed")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(CreateCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	h.Audit.LogUserAction(ctx, res.User.ID, "login", "", "ok")
	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"id":               res.User.ID,
		"username":         res.User.Username,
		"first_name":       res.User.FirstName,
		"last_name":        res.User.LastName,
		"is_admin":         res.IsAdmin,
		"password_changed": res.PasswordChanged,
		"access_token":     res.AccessToken,
		"refresh_token":    res.RefreshToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	refreshToken := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.Bind(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			l.Warn("refresh_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		l.Error("refresh_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(CreateCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	refreshToken := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		refreshToken = cookie.Value
	}
	if err := h.Svc.LogOut(ctx, refreshToken); err != nil {
		l.Error("logout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(DeleteCookie("accessToken", "/"))
	c.SetCookie(DeleteCookie("refreshToken", "/"))

	h.Audit.LogUserAction(ctx, userID, "logout", "", "ok")
	return c.JSON(http.StatusOK, "logged out")
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			h.Audit.LogUserAction(ctx, userID, "change_password", "wrong old password", "failed")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
		}
		l.Error("change_password_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Audit.LogUserAction(ctx, userID, "change_password", "", "ok")
	return c.JSON(http.StatusOK, "password changed")
}
