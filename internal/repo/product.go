package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, listedOnly bool, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if listedOnly {
		q = q.Where("listed = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SearchProducts is the SQL fallback used when no search cluster is
// configured. Matches listed products by name or description.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + query + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("listed = ?", true).
		Where("name LIKE ? OR description LIKE ?", pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// CountLowStock counts listed products at or below the given threshold.
func (r *GormRepo) CountLowStock(ctx context.Context, threshold uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("listed = ? AND stock <= ?", true, threshold).Count(&n).Error
	return n, err
}
