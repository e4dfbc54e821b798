package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
)

// ErrStockExceeded means the requested quantity would push a cart line past
// the product's current stock.
var ErrStockExceeded = errors.New("quantity exceeds available stock")

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Select("products.*, cart_items.quantity").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AddToCart merges quantity into an existing line or inserts a new one. The
// resulting quantity is validated against current stock inside the
// transaction.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}

		newQty := quantity
		existing := true
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			existing = false
		} else {
			newQty += item.Quantity
		}

		if newQty > product.Stock {
			return ErrStockExceeded
		}

		if existing {
			item.Quantity = newQty
			return tx.Save(&item).Error
		}
		item = models.CartItem{UserID: userID, ProductID: productID, Quantity: newQty}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetCartQuantity replaces a line's quantity. Zero or negative removes the
// line; positive values are re-validated against current stock.
func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, bool, error) {
	var item models.CartItem
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
			return err
		}

		if quantity <= 0 {
			removed = true
			return tx.Delete(&item).Error
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}
		if uint(quantity) > product.Stock {
			return ErrStockExceeded
		}

		item.Quantity = uint(quantity)
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &item, removed, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
