package httpserver

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/service"
)

type AdminAuditHTTP struct {
	Svc *service.AuditService
}

// ExportLogs streams the audit trail as the pipe-delimited export. The temp
// file the service wrote is removed once the response has been sent.
func (h *AdminAuditHTTP) ExportLogs(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.logs.export")

	adminOnly := c.QueryParam("admin_only") == "true"

	path, err := h.Svc.ExportLogs(ctx, adminOnly)
	if err != nil {
		l.Error("export_logs_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot export logs")
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			l.Warn("export_cleanup_failed", "path", path, "error", err)
		}
	}()

	return c.File(path)
}

func (h *AdminAuditHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard.stats")

	stats, err := h.Svc.DashboardStats(ctx)
	if err != nil {
		l.Error("dashboard_stats_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot compute stats")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminAuditHTTP) Alerts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard.alerts")

	alerts, err := h.Svc.DashboardAlerts(ctx)
	if err != nil {
		l.Error("dashboard_alerts_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot compute alerts")
	}
	if alerts == nil {
		alerts = []service.Alert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

func (h *AdminAuditHTTP) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings.get")

	logUserActions, err := h.Svc.UserActionLoggingEnabled(ctx)
	if err != nil {
		l.Error("get_settings_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read settings")
	}
	threshold, err := h.Svc.LowStockThreshold(ctx)
	if err != nil {
		l.Error("get_settings_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read settings")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"log_user_actions":    logUserActions,
		"low_stock_threshold": threshold,
	})
}

func (h *AdminAuditHTTP) PutSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings.put")

	var req struct {
		LogUserActions    *bool `json:"log_user_actions"`
		LowStockThreshold *uint `json:"low_stock_threshold"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.LogUserActions != nil {
		if err := h.Svc.SetUserActionLogging(ctx, *req.LogUserActions); err != nil {
			l.Error("put_settings_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot write settings")
		}
	}
	if req.LowStockThreshold != nil {
		if err := h.Svc.SetLowStockThreshold(ctx, *req.LowStockThreshold); err != nil {
			l.Error("put_settings_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot write settings")
		}
	}
	return h.GetSettings(c)
}
