package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
)

var ErrCategoryExists = errors.New("category already exists")

func (r *GormRepo) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	tx := r.DB.WithContext(ctx).Where("name = ?", c.Name).FirstOrCreate(c)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrCategoryExists
	}
	return nil
}

func (r *GormRepo) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	var category models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return err
		}
		var clash int64
		if err := tx.Model(&models.Category{}).
			Where("name = ? AND id <> ?", name, id).Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return ErrCategoryExists
		}
		category.Name = name
		return tx.Save(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes the category and, in the same transaction, detaches
// and unlists every product that referenced it.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Product{}).
			Where("category_id = ?", id).
			Updates(map[string]any{"category_id": nil, "listed": false}).Error
	})
}
