package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/tokens"
)

func CreateCookie(name, value, path string, expTime time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

type AuthMiddleware struct {
	JWTSecret []byte
}

func (m *AuthMiddleware) accessToken(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAuth validates the access token and stores the caller's id and role
// on the request context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := m.accessToken(c)
		if tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		claims, err := tokens.AccessClaimsFromToken(tokenStr, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
		}

		c.Set("user_id", uint(userID))
		c.Set("role", claims.Role)
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

// UserID reads the authenticated caller set by RequireAuth.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("user_id").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
