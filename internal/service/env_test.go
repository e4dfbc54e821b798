package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkraev/veloshop/internal/config"
	"github.com/mkraev/veloshop/internal/models"
	"github.com/mkraev/veloshop/internal/repo"
)

type testEnv struct {
	Repo       *repo.GormRepo
	DataDir    string
	Auth       *AuthService
	Users      *UserService
	Products   *ProductService
	Categories *CategoryService
	Cart       *CartService
	Discounts  *DiscountService
	Audit      *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := config.InitDB(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	rp := &repo.GormRepo{DB: db}
	return &testEnv{
		Repo:       rp,
		DataDir:    dir,
		Auth:       &AuthService{Repo: rp, JWTSecret: []byte("test-jwt-secret"), RefreshSecret: []byte("test-refresh-secret")},
		Users:      &UserService{Repo: rp},
		Products:   &ProductService{Repo: rp, DataDir: dir},
		Categories: &CategoryService{Repo: rp},
		Cart:       &CartService{Repo: rp},
		Discounts:  &DiscountService{Repo: rp, DataDir: dir},
		Audit:      &AuditService{Repo: rp},
	}
}

func (env *testEnv) mustRegister(t *testing.T, username string) *models.User {
	t.Helper()

	user, err := env.Auth.Register(context.Background(), RegisterInput{
		Username:  username,
		Password:  "Secret123",
		FirstName: "Test",
		LastName:  "User",
		Age:       30,
	})
	require.NoError(t, err)
	return user
}

func (env *testEnv) mustCreateProduct(t *testing.T, name string, price float64, stock uint) *models.Product {
	t.Helper()

	product, err := env.Products.Create(context.Background(), CreateProductInput{
		Name:        name,
		Price:       price,
		Description: "test product",
		Stock:       stock,
	})
	require.NoError(t, err)
	return product
}
