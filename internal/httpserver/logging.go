package httpserver

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
)

// RequestLogger injects the service logger into the request context and logs
// one line per request.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.IntoContext(req.Context(), l)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			l.Info("http_request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
