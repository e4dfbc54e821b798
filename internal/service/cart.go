package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
)

// ErrStockExceeded is surfaced to callers unchanged from the repo layer.
var ErrStockExceeded = repo.ErrStockExceeded

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) Items(ctx context.Context, userID uint) ([]models.CartLine, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) Add(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("product_id required: %w", ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}

	item, err := s.Repo.AddToCart(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

// SetQuantity replaces the line's quantity; zero or negative removes the line
// and returns removed=true.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, bool, error) {
	if productID == 0 {
		return nil, false, fmt.Errorf("product_id required: %w", ErrValidation)
	}

	item, removed, err := s.Repo.SetCartQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("cart item not found: %w", ErrNotFound)
		}
		return nil, false, err
	}
	return item, removed, nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}
