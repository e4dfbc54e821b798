package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/qr"
	"github.com/mkraev/veloshop/internal/repo"
)

var (
	ErrMalformedQR      = errors.New("malformed discount QR payload")
	ErrInactiveDiscount = errors.New("discount is not active")
)

type DiscountService struct {
	Repo    *repo.GormRepo
	DataDir string
}

func (s *DiscountService) qrPath(name string) string {
	return filepath.Join(s.DataDir, "discounts", name+".png")
}

func (s *DiscountService) List(ctx context.Context) ([]models.Discount, error) {
	return s.Repo.GetDiscounts(ctx)
}

// validDiscountName additionally bans ":", which would corrupt the
// colon-delimited QR payload.
func validDiscountName(name string) bool {
	return validPathName(name) && !strings.Contains(name, ":")
}

func (s *DiscountService) Create(ctx context.Context, name string, percentage uint) (*models.Discount, error) {
	if !validDiscountName(name) {
		return nil, fmt.Errorf("invalid discount name: %w", ErrValidation)
	}
	if percentage < 1 || percentage > 100 {
		return nil, fmt.Errorf("percentage must be between 1 and 100: %w", ErrValidation)
	}

	if err := os.MkdirAll(filepath.Join(s.DataDir, "discounts"), 0o755); err != nil {
		return nil, fmt.Errorf("create discounts dir: %w", err)
	}
	path := s.qrPath(name)
	if err := qr.WriteFile(qr.DiscountPayload(name, percentage), path); err != nil {
		return nil, err
	}

	discount := models.Discount{
		Name:       name,
		Percentage: percentage,
		QRCodePath: path,
		Active:     true,
	}
	if err := s.Repo.CreateDiscount(ctx, &discount); err != nil {
		removeBestEffort(logging.FromContext(ctx), path)
		if errors.Is(err, repo.ErrDiscountExists) {
			return nil, fmt.Errorf("discount name already taken: %w", ErrConflict)
		}
		return nil, err
	}
	return &discount, nil
}

// Update regenerates the QR code when name or percentage change and drops the
// file left under the old name.
func (s *DiscountService) Update(ctx context.Context, id uint, name *string, percentage *uint) (*models.Discount, error) {
	l := logging.FromContext(ctx).With("svc", "discount.update", "id", id)

	discount, err := s.Repo.GetDiscount(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	oldName, oldPct := discount.Name, discount.Percentage
	if name != nil {
		if !validDiscountName(*name) {
			return nil, fmt.Errorf("invalid discount name: %w", ErrValidation)
		}
		discount.Name = *name
	}
	if percentage != nil {
		if *percentage < 1 || *percentage > 100 {
			return nil, fmt.Errorf("percentage must be between 1 and 100: %w", ErrValidation)
		}
		discount.Percentage = *percentage
	}

	if discount.Name != oldName || discount.Percentage != oldPct {
		path := s.qrPath(discount.Name)
		if err := qr.WriteFile(qr.DiscountPayload(discount.Name, discount.Percentage), path); err != nil {
			return nil, err
		}
		if discount.Name != oldName {
			removeBestEffort(l, s.qrPath(oldName))
		}
		discount.QRCodePath = path
	}

	if err := s.Repo.SaveDiscount(ctx, discount); err != nil {
		return nil, err
	}
	return discount, nil
}

func (s *DiscountService) Delete(ctx context.Context, id uint) error {
	discount, err := s.Repo.GetDiscount(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Repo.DeleteDiscount(ctx, id); err != nil {
		return err
	}
	removeBestEffort(logging.FromContext(ctx), discount.QRCodePath)
	return nil
}

// VerifyQR parses a scanned "DISCOUNT:<name>:<percentage>" payload and
// returns the matching active discount.
func (s *DiscountService) VerifyQR(ctx context.Context, payload string) (*models.Discount, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] != "DISCOUNT" || parts[1] == "" {
		return nil, ErrMalformedQR
	}
	percentage, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return nil, ErrMalformedQR
	}

	discount, err := s.Repo.FindDiscountByPayload(ctx, parts[1], uint(percentage))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !discount.Active {
		return nil, ErrInactiveDiscount
	}
	return discount, nil
}

func (s *DiscountService) ToggleActive(ctx context.Context, id uint) (*models.Discount, error) {
	discount, err := s.Repo.GetDiscount(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	discount.Active = !discount.Active
	if err := s.Repo.SaveDiscount(ctx, discount); err != nil {
		return nil, err
	}
	return discount, nil
}

// Redeem verifies the payload and, on success, counts the use.
func (s *DiscountService) Redeem(ctx context.Context, payload string) (*models.Discount, error) {
	discount, err := s.VerifyQR(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.Repo.RedeemDiscount(ctx, discount.ID)
}
