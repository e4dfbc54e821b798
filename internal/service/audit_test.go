package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_LogUserAction_GatedBySetting(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "tracked")

	// enabled by default
	enabled, err := env.Audit.UserActionLoggingEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	env.Audit.LogUserAction(ctx, user.ID, "login", "", "success")
	rows, err := env.Repo.GetUserActions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, env.Audit.SetUserActionLogging(ctx, false))
	env.Audit.LogUserAction(ctx, user.ID, "login", "", "success")
	rows, err = env.Repo.GetUserActions(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "logging must stay off until re-enabled")

	require.NoError(t, env.Audit.SetUserActionLogging(ctx, true))
	env.Audit.LogUserAction(ctx, user.ID, "login", "", "success")
	rows, err = env.Repo.GetUserActions(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAuditService_LogAdminAction_IgnoresSetting(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.mustCreateAdmin(t, "auditor")

	require.NoError(t, env.Audit.SetUserActionLogging(ctx, false))

	targetID := uint(42)
	env.Audit.LogAdminAction(ctx, admin.ID, "delete_product", "product", &targetID, "Chain", "success")

	rows, err := env.Repo.GetAdminActions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "delete_product", rows[0].Action)
	assert.Equal(t, "auditor", rows[0].Username)
}

func TestAuditService_ExportLogs_UserActions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "exported")

	env.Audit.LogUserAction(ctx, user.ID, "login", "", "success")
	env.Audit.LogUserAction(ctx, user.ID, "add_to_cart", "Chain x2", "success")

	path, err := env.Audit.ExportLogs(ctx, false)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	// newest first
	assert.Contains(t, lines[0], "add_to_cart")
	assert.Contains(t, lines[1], "login")

	fields := strings.Split(lines[0], " | ")
	require.Len(t, fields, 5)
	assert.Equal(t, "Test User", fields[1])
	assert.Equal(t, "add_to_cart", fields[2])
	assert.Equal(t, "Chain x2", fields[3])
	assert.Equal(t, "success", fields[4])
}

func TestAuditService_ExportLogs_AdminOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.mustCreateAdmin(t, "boss")
	user := env.mustRegister(t, "bystander")

	env.Audit.LogUserAction(ctx, user.ID, "login", "", "success")
	targetID := uint(7)
	env.Audit.LogAdminAction(ctx, admin.ID, "update_product", "product", &targetID, "price 10 -> 12", "success")

	path, err := env.Audit.ExportLogs(ctx, true)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1, "user actions must not leak into the admin export")

	fields := strings.Split(lines[0], " | ")
	require.Len(t, fields, 6)
	assert.Equal(t, "boss", fields[1])
	assert.Equal(t, "update_product", fields[2])
	assert.Equal(t, "product #7", fields[3])
}

func TestAuditService_DashboardStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.mustRegister(t, "one")
	env.mustRegister(t, "two")
	env.mustCreateProduct(t, "Stem", 25, 10)
	env.mustCreateProduct(t, "Spoke", 2, 1)
	_, err := env.Categories.Create(ctx, "Parts")
	require.NoError(t, err)
	_, err = env.Discounts.Create(ctx, "STAT", 10)
	require.NoError(t, err)

	stats, err := env.Audit.DashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Users)
	assert.EqualValues(t, 2, stats.Products)
	assert.EqualValues(t, 1, stats.Categories)
	assert.EqualValues(t, 1, stats.Discounts)
	assert.Zero(t, stats.FailedLogins24h)
}

func TestAuditService_DashboardAlerts_FailedLogins(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "victim")

	alerts, err := env.Audit.DashboardAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	for i := 0; i < 3; i++ {
		env.Audit.LogUserAction(ctx, user.ID, "login", "", "failed")
	}

	alerts, err = env.Audit.DashboardAlerts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, "failed_logins", alerts[0].Kind)
}

func TestAuditService_LowStockThreshold_Setting(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	threshold, err := env.Audit.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, threshold, "default threshold")

	require.NoError(t, env.Audit.SetLowStockThreshold(ctx, 12))
	threshold, err = env.Audit.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 12, threshold)
}
