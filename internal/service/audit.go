package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mkraev/veloshop/internal/events"
	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
)

const (
	SettingLogUserActions    = "log_user_actions"
	SettingLowStockThreshold = "low_stock_threshold"

	defaultLowStockThreshold = 5
	failedLoginAlertWindow   = time.Hour
	failedLoginAlertCount    = 3
	discountUseWindow        = 24 * time.Hour
)

const exportTimeFormat = "2006-01-02 15:04:05"

type AuditService struct {
	Repo *repo.GormRepo
	// Producer is optional; when set, audit rows are also published as events.
	Producer *events.Producer
}

// LogUserAction appends a user audit row unless user-action logging has been
// switched off in settings. Audit failures are logged, never propagated to
// the operation being audited.
func (s *AuditService) LogUserAction(ctx context.Context, userID uint, action, details, status string) {
	l := logging.FromContext(ctx).With("svc", "audit.user", "action", action)

	enabled, err := s.UserActionLoggingEnabled(ctx)
	if err != nil {
		l.Warn("audit_settings_error", "error", err)
		return
	}
	if !enabled {
		return
	}

	row := models.UserAction{
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Status:    status,
	}
	if err := s.Repo.CreateUserAction(ctx, &row); err != nil {
		l.Error("audit_write_failed", "error", err)
		return
	}
	s.publish(ctx, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"kind":    "user_action",
		"user_id": userID,
		"action":  action,
		"details": details,
		"status":  status,
	})
}

// LogAdminAction appends an admin audit row. Admin actions are always logged.
func (s *AuditService) LogAdminAction(ctx context.Context, adminID uint, action, targetType string, targetID *uint, details, status string) {
	l := logging.FromContext(ctx).With("svc", "audit.admin", "action", action)

	row := models.AdminAction{
		CreatedAt:  time.Now().UTC(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		Status:     status,
	}
	if err := s.Repo.CreateAdminAction(ctx, &row); err != nil {
		l.Error("audit_write_failed", "error", err)
		return
	}
	s.publish(ctx, strconv.FormatUint(uint64(adminID), 10), map[string]any{
		"kind":        "admin_action",
		"admin_id":    adminID,
		"action":      action,
		"target_type": targetType,
		"target_id":   targetID,
		"details":     details,
		"status":      status,
	})
}

func (s *AuditService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.Publish(pubCtx, key, event); err != nil {
		logging.FromContext(ctx).Warn("audit_publish_failed", "error", err)
	}
}

// ExportLogs writes the audit trail newest-first as pipe-delimited lines into
// a temp file and returns its path. The caller removes the file once it has
// been read back.
func (s *AuditService) ExportLogs(ctx context.Context, adminOnly bool) (string, error) {
	f, err := os.CreateTemp("", "veloshop-logs-*.txt")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if adminOnly {
		rows, err := s.Repo.GetAdminActions(ctx)
		if err != nil {
			os.Remove(f.Name())
			return "", err
		}
		for _, row := range rows {
			target := "-"
			if row.TargetID != nil {
				target = fmt.Sprintf("%s #%d", row.TargetType, *row.TargetID)
			} else if row.TargetType != "" {
				target = row.TargetType
			}
			line := fmt.Sprintf("%s | %s | %s | %s | %s | %s\n",
				row.CreatedAt.Format(exportTimeFormat),
				displayName(row.Username, row.FirstName, row.LastName, row.AdminID),
				row.Action, target, row.Details, row.Status)
			if _, err := f.WriteString(line); err != nil {
				os.Remove(f.Name())
				return "", fmt.Errorf("write export file: %w", err)
			}
		}
		return f.Name(), nil
	}

	rows, err := s.Repo.GetUserActions(ctx)
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	for _, row := range rows {
		line := fmt.Sprintf("%s | %s | %s | %s | %s\n",
			row.CreatedAt.Format(exportTimeFormat),
			displayName(row.Username, row.FirstName, row.LastName, row.UserID),
			row.Action, row.Details, row.Status)
		if _, err := f.WriteString(line); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("write export file: %w", err)
		}
	}
	return f.Name(), nil
}

func displayName(username, firstName, lastName string, id uint) string {
	if firstName != "" || lastName != "" {
		return firstName + " " + lastName
	}
	if username != "" {
		return username
	}
	return fmt.Sprintf("user #%d", id)
}

type DashboardStats struct {
	Users            int64 `json:"users"`
	Products         int64 `json:"products"`
	Categories       int64 `json:"categories"`
	Discounts        int64 `json:"discounts"`
	LowStockProducts int64 `json:"low_stock_products"`
	FailedLogins24h  int64 `json:"failed_logins_24h"`
}

func (s *AuditService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.Users, err = s.Repo.CountRows(ctx, &models.User{}); err != nil {
		return nil, err
	}
	if stats.Products, err = s.Repo.CountRows(ctx, &models.Product{}); err != nil {
		return nil, err
	}
	if stats.Categories, err = s.Repo.CountRows(ctx, &models.Category{}); err != nil {
		return nil, err
	}
	if stats.Discounts, err = s.Repo.CountRows(ctx, &models.Discount{}); err != nil {
		return nil, err
	}

	threshold, err := s.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	if stats.LowStockProducts, err = s.Repo.CountLowStock(ctx, threshold); err != nil {
		return nil, err
	}
	if stats.FailedLogins24h, err = s.Repo.CountFailedLogins(ctx, time.Now().UTC().Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	return stats, nil
}

type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// DashboardAlerts runs the fixed threshold checks shown on the admin
// dashboard.
func (s *AuditService) DashboardAlerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert

	failed, err := s.Repo.CountFailedLogins(ctx, time.Now().UTC().Add(-failedLoginAlertWindow))
	if err != nil {
		return nil, err
	}
	if failed >= failedLoginAlertCount {
		alerts = append(alerts, Alert{
			Kind:    "failed_logins",
			Message: fmt.Sprintf("%d failed login attempts in the last hour", failed),
		})
	}

	threshold, err := s.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.Repo.CountLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if low > 0 {
		alerts = append(alerts, Alert{
			Kind:    "low_stock",
			Message: fmt.Sprintf("%d listed products at or below %d in stock", low, threshold),
		})
	}

	uses, err := s.Repo.CountRecentDiscountUses(ctx, time.Now().UTC().Add(-discountUseWindow))
	if err != nil {
		return nil, err
	}
	if uses > 0 {
		alerts = append(alerts, Alert{
			Kind:    "discount_use",
			Message: fmt.Sprintf("%d discounts redeemed in the last 24 hours", uses),
		})
	}
	return alerts, nil
}

func (s *AuditService) UserActionLoggingEnabled(ctx context.Context) (bool, error) {
	v, err := s.Repo.GetSetting(ctx, SettingLogUserActions, "true")
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *AuditService) SetUserActionLogging(ctx context.Context, enabled bool) error {
	return s.Repo.PutSetting(ctx, SettingLogUserActions, strconv.FormatBool(enabled))
}

func (s *AuditService) LowStockThreshold(ctx context.Context) (uint, error) {
	v, err := s.Repo.GetSetting(ctx, SettingLowStockThreshold, strconv.Itoa(defaultLowStockThreshold))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return defaultLowStockThreshold, nil
	}
	return uint(n), nil
}

func (s *AuditService) SetLowStockThreshold(ctx context.Context, threshold uint) error {
	return s.Repo.PutSetting(ctx, SettingLowStockThreshold, strconv.FormatUint(uint64(threshold), 10))
}
