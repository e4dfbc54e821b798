package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
)

type CategoryService struct {
	Repo *repo.GormRepo
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repo.GetCategories(ctx)
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	category := models.Category{Name: name}
	if err := s.Repo.CreateCategory(ctx, &category); err != nil {
		if errors.Is(err, repo.ErrCategoryExists) {
			return nil, fmt.Errorf("category name already taken: %w", ErrConflict)
		}
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) Rename(ctx context.Context, id uint, name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	category, err := s.Repo.RenameCategory(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repo.ErrCategoryExists):
			return nil, fmt.Errorf("category name already taken: %w", ErrConflict)
		}
		return nil, err
	}
	return category, nil
}

// Delete removes the category; products that referenced it are detached and
// unlisted in the same transaction.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
