package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/logging"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/qr"
	"github.com/mkraev/veloshop/internal/repo"
	"github.com/mkraev/veloshop/internal/search"
)

const qrFileName = "qr.png"

type ProductService struct {
	Repo    *repo.GormRepo
	DataDir string
	// Search is optional; nil means the SQL fallback serves store search.
	Search *search.Client
}

type CreateProductInput struct {
	Name        string
	Price       float64
	Description string
	CategoryID  *uint
	Stock       uint
	// ImageSource is the path of an uploaded file to copy into the product's
	// directory.
	ImageSource *string
}

type UpdateProductInput struct {
	Name        *string
	Price       *float64
	Description *string
	CategoryID  *uint
	// ClearCategory detaches the product from its category; nil CategoryID
	// alone means "unchanged".
	ClearCategory bool
	Stock         *uint
	ImageSource   *string
}

func (s *ProductService) productDir(name string) string {
	return filepath.Join(s.DataDir, "products", name)
}

// Create inserts the product after laying out its directory: the generated QR
// code and, when given, a copy of the uploaded image.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.create", "name", in.Name)

	if !validPathName(in.Name) {
		return nil, fmt.Errorf("invalid product name: %w", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if _, err := s.Repo.FindProductByName(ctx, in.Name); err == nil {
		return nil, fmt.Errorf("product name already taken: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dir := s.productDir(in.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create product dir: %w", err)
	}

	qrPath := filepath.Join(dir, qrFileName)
	if err := qr.WriteFile(qr.ProductPayload(in.Name, in.Price), qrPath); err != nil {
		removeBestEffort(l, dir)
		return nil, err
	}

	product := models.Product{
		Name:        in.Name,
		Price:       in.Price,
		QRCodePath:  qrPath,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
	}

	if in.ImageSource != nil {
		imagePath, err := copyImage(*in.ImageSource, dir)
		if err != nil {
			removeBestEffort(l, dir)
			return nil, err
		}
		product.ImagePath = &imagePath
	}

	if err := s.Repo.CreateProduct(ctx, &product); err != nil {
		removeBestEffort(l, dir)
		return nil, err
	}

	s.reindex(ctx, &product)
	return &product, nil
}

// Update applies the patch and only touches files that actually changed: the
// QR code is regenerated when name or price change, the directory is renamed
// when the name changes, and a replaced image has its predecessor removed.
func (s *ProductService) Update(ctx context.Context, id uint, in UpdateProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.update", "id", id)

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	oldName, oldPrice := product.Name, product.Price
	if in.Name != nil {
		if !validPathName(*in.Name) {
			return nil, fmt.Errorf("invalid product name: %w", ErrValidation)
		}
		product.Name = *in.Name
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
		}
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.ClearCategory {
		// Same consequence as deleting the category: no category, no listing.
		product.CategoryID = nil
		product.Listed = false
	} else if in.CategoryID != nil {
		product.CategoryID = in.CategoryID
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}

	nameChanged := product.Name != oldName
	priceChanged := product.Price != oldPrice

	if nameChanged {
		if other, err := s.Repo.FindProductByName(ctx, product.Name); err == nil && other.ID != id {
			return nil, fmt.Errorf("product name already taken: %w", ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		oldDir, newDir := s.productDir(oldName), s.productDir(product.Name)
		if err := os.Rename(oldDir, newDir); err != nil {
			return nil, fmt.Errorf("rename product dir: %w", err)
		}
		product.QRCodePath = filepath.Join(newDir, qrFileName)
		if product.ImagePath != nil {
			moved := filepath.Join(newDir, filepath.Base(*product.ImagePath))
			product.ImagePath = &moved
		}
	}

	if nameChanged || priceChanged {
		if err := qr.WriteFile(qr.ProductPayload(product.Name, product.Price), product.QRCodePath); err != nil {
			return nil, err
		}
	}

	if in.ImageSource != nil {
		dir := s.productDir(product.Name)
		newImage, err := copyImage(*in.ImageSource, dir)
		if err != nil {
			return nil, err
		}
		if product.ImagePath != nil && *product.ImagePath != newImage {
			removeBestEffort(l, *product.ImagePath)
		}
		product.ImagePath = &newImage
	}

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		if nameChanged {
			// Undo the rename so the tree matches the unchanged row.
			if rerr := os.Rename(s.productDir(product.Name), s.productDir(oldName)); rerr != nil {
				l.Error("rename_rollback_failed", "error", rerr)
			}
		}
		return nil, err
	}

	s.reindex(ctx, product)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "product.delete", "id", id)

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	removeBestEffort(l, s.productDir(product.Name))

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_delete_failed", "error", err)
		}
	}
	return nil
}

// SetListed toggles store visibility. Listing requires a category, a
// description, an image and positive stock.
func (s *ProductService) SetListed(ctx context.Context, id uint, listed bool) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if listed {
		switch {
		case product.CategoryID == nil:
			return nil, fmt.Errorf("listed product needs a category: %w", ErrValidation)
		case product.Description == "":
			return nil, fmt.Errorf("listed product needs a description: %w", ErrValidation)
		case product.ImagePath == nil:
			return nil, fmt.Errorf("listed product needs an image: %w", ErrValidation)
		case product.Stock == 0:
			return nil, fmt.Errorf("listed product needs stock: %w", ErrValidation)
		}
	}

	product.Listed = listed
	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.reindex(ctx, product)
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, listedOnly bool, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, listedOnly, offset, limit)
}

// SearchStore queries the search cluster when configured, otherwise the SQL
// fallback.
func (s *ProductService) SearchStore(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	if s.Search != nil {
		return s.Search.Search(ctx, query, offset, limit)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

// reindex mirrors the row into the search cluster, best-effort.
func (s *ProductService) reindex(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}
