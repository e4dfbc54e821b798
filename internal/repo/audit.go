package repo

import (
	"context"
	"time"

	"github.com/mkraev/veloshop/internal/models"
)

func (r *GormRepo) CreateUserAction(ctx context.Context, a *models.UserAction) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) CreateAdminAction(ctx context.Context, a *models.AdminAction) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// UserActionRow is a user action joined to the actor's display fields.
type UserActionRow struct {
	models.UserAction
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AdminActionRow is an admin action joined to the actor's display fields.
type AdminActionRow struct {
	models.AdminAction
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GetUserActions returns user actions newest-first, joined to users for a
// display name. Rows for deleted users keep the action but lose the name.
func (r *GormRepo) GetUserActions(ctx context.Context) ([]UserActionRow, error) {
	var rows []UserActionRow
	err := r.DB.WithContext(ctx).Model(&models.UserAction{}).
		Select("user_actions.*, users.username, users.first_name, users.last_name").
		Joins("LEFT JOIN users ON users.id = user_actions.user_id").
		Order("user_actions.created_at DESC, user_actions.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) GetAdminActions(ctx context.Context) ([]AdminActionRow, error) {
	var rows []AdminActionRow
	err := r.DB.WithContext(ctx).Model(&models.AdminAction{}).
		Select("admin_actions.*, users.username, users.first_name, users.last_name").
		Joins("LEFT JOIN users ON users.id = admin_actions.admin_id").
		Order("admin_actions.created_at DESC, admin_actions.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountFailedLogins counts failed login attempts since the cutoff.
func (r *GormRepo) CountFailedLogins(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserAction{}).
		Where("action = ? AND status = ? AND created_at >= ?", "login", "failed", since).
		Count(&n).Error
	return n, err
}

func (r *GormRepo) CountRows(ctx context.Context, model any) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(model).Count(&n).Error
	return n, err
}
