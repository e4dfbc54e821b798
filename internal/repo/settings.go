package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkraev/veloshop/internal/models"
)

func (r *GormRepo) GetSetting(ctx context.Context, key, def string) (string, error) {
	var s models.Setting
	if err := r.DB.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return def, nil
		}
		return "", err
	}
	return s.Value, nil
}

func (r *GormRepo) PutSetting(ctx context.Context, key, value string) error {
	s := models.Setting{Key: key, Value: value}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&s).Error
}
