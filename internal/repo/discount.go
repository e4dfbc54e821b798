package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
)

var ErrDiscountExists = errors.New("discount already exists")

func (r *GormRepo) GetDiscounts(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *GormRepo) GetDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.DB.WithContext(ctx).First(&discount, id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *GormRepo) CreateDiscount(ctx context.Context, d *models.Discount) error {
	tx := r.DB.WithContext(ctx).Where("name = ?", d.Name).FirstOrCreate(d)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDiscountExists
	}
	return nil
}

func (r *GormRepo) SaveDiscount(ctx context.Context, d *models.Discount) error {
	return r.DB.WithContext(ctx).Save(d).Error
}

func (r *GormRepo) DeleteDiscount(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Discount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindDiscountByPayload looks a discount up by the (name, percentage) pair
// decoded from a scanned QR code.
func (r *GormRepo) FindDiscountByPayload(ctx context.Context, name string, percentage uint) (*models.Discount, error) {
	var discount models.Discount
	err := r.DB.WithContext(ctx).
		Where("name = ? AND percentage = ?", name, percentage).
		First(&discount).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// RedeemDiscount bumps the use counter and stamps last_used.
func (r *GormRepo) RedeemDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	var discount models.Discount
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&discount, id).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		discount.Uses++
		discount.LastUsed = &now
		return tx.Save(&discount).Error
	})
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// CountRecentDiscountUses counts discounts redeemed since the cutoff.
func (r *GormRepo) CountRecentDiscountUses(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Discount{}).
		Where("last_used IS NOT NULL AND last_used >= ?", since).Count(&n).Error
	return n, err
}
