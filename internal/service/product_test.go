package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/veloshop/internal/qr"
)

func writeTempImage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
	return path
}

func TestProductService_Create_WritesQRCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	product := env.mustCreateProduct(t, "Trek Marlin", 499.99, 4)

	assert.Equal(t, filepath.Join(env.DataDir, "products", "Trek Marlin", "qr.png"), product.QRCodePath)
	_, err := os.Stat(product.QRCodePath)
	require.NoError(t, err, "QR code must exist at the recorded path")
	assert.False(t, product.Listed, "new products start unlisted")
}

func TestProductService_Create_DuplicateName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mustCreateProduct(t, "Helmet", 59.90, 10)

	_, err := env.Products.Create(context.Background(), CreateProductInput{Name: "Helmet", Price: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProductService_UnsafeNamesRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	names := []string{"", ".", "..", "../escape", "sub/dir", `back\slash`}
	for _, name := range names {
		_, err := env.Products.Create(ctx, CreateProductInput{Name: name, Price: 1, Stock: 1})
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, ErrValidation)
	}

	product := env.mustCreateProduct(t, "Honest", 10, 1)
	for _, name := range names {
		name := name
		_, err := env.Products.Update(ctx, product.ID, UpdateProductInput{Name: &name})
		require.Error(t, err, "rename to %q", name)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := os.Stat(filepath.Join(env.DataDir, "products", "Honest"))
	require.NoError(t, err, "rejected renames must not move the directory")
}

func TestProductService_Create_CopiesImage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := writeTempImage(t)

	product, err := env.Products.Create(context.Background(), CreateProductInput{
		Name:        "Gloves",
		Price:       19.95,
		Stock:       3,
		ImageSource: &src,
	})
	require.NoError(t, err)
	require.NotNil(t, product.ImagePath)
	assert.Equal(t, filepath.Join(env.DataDir, "products", "Gloves", "image.jpg"), *product.ImagePath)

	data, err := os.ReadFile(*product.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, "not really a jpeg", string(data))
}

func TestProductService_Update_RenameRelocatesFiles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	product := env.mustCreateProduct(t, "Old Name", 100, 2)
	oldDir := filepath.Join(env.DataDir, "products", "Old Name")

	newName := "New Name"
	updated, err := env.Products.Update(ctx, product.ID, UpdateProductInput{Name: &newName})
	require.NoError(t, err)

	newDir := filepath.Join(env.DataDir, "products", "New Name")
	assert.Equal(t, filepath.Join(newDir, "qr.png"), updated.QRCodePath)

	_, err = os.Stat(updated.QRCodePath)
	require.NoError(t, err, "QR code must follow the renamed directory")
	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err), "old directory must be gone")
}

func TestProductService_Update_PriceChangeRegeneratesQR(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	product := env.mustCreateProduct(t, "Pump", 25, 5)

	before, err := os.ReadFile(product.QRCodePath)
	require.NoError(t, err)

	newPrice := 30.0
	updated, err := env.Products.Update(ctx, product.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, product.QRCodePath, updated.QRCodePath)

	after, err := os.ReadFile(updated.QRCodePath)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "QR image must encode the new price")
	assert.Equal(t, "Pump_30", qr.ProductPayload(updated.Name, updated.Price))
}

func TestProductService_Update_ClearCategory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.Categories.Create(ctx, "Seasonal")
	require.NoError(t, err)

	src := writeTempImage(t)
	product, err := env.Products.Create(ctx, CreateProductInput{
		Name:        "Winter Tires",
		Price:       120,
		Description: "studded",
		CategoryID:  &category.ID,
		Stock:       4,
		ImageSource: &src,
	})
	require.NoError(t, err)
	_, err = env.Products.SetListed(ctx, product.ID, true)
	require.NoError(t, err)

	updated, err := env.Products.Update(ctx, product.ID, UpdateProductInput{ClearCategory: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID, "category reference must be cleared")
	assert.False(t, updated.Listed, "a product without a category cannot stay listed")

	// reattaching is a plain category update
	updated, err = env.Products.Update(ctx, product.ID, UpdateProductInput{CategoryID: &category.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, category.ID, *updated.CategoryID)
}

func TestProductService_Update_NameClash(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mustCreateProduct(t, "Taken", 10, 1)
	product := env.mustCreateProduct(t, "Mine", 20, 1)

	clash := "Taken"
	_, err := env.Products.Update(context.Background(), product.ID, UpdateProductInput{Name: &clash})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProductService_Delete_RemovesDirectory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	product := env.mustCreateProduct(t, "Doomed", 5, 1)
	dir := filepath.Join(env.DataDir, "products", "Doomed")

	require.NoError(t, env.Products.Delete(ctx, product.ID))

	_, err := env.Products.Get(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, env.Products.Delete(ctx, product.ID), ErrNotFound)
}

func TestProductService_SetListed_Requirements(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.Categories.Create(ctx, "Bikes")
	require.NoError(t, err)

	bare := env.mustCreateProduct(t, "Bare", 10, 0)
	_, err = env.Products.SetListed(ctx, bare.ID, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	src := writeTempImage(t)
	ready, err := env.Products.Create(ctx, CreateProductInput{
		Name:        "Ready",
		Price:       100,
		Description: "a complete product",
		CategoryID:  &category.ID,
		Stock:       2,
		ImageSource: &src,
	})
	require.NoError(t, err)

	listed, err := env.Products.SetListed(ctx, ready.ID, true)
	require.NoError(t, err)
	assert.True(t, listed.Listed)

	unlisted, err := env.Products.SetListed(ctx, ready.ID, false)
	require.NoError(t, err)
	assert.False(t, unlisted.Listed)
}

func TestProductService_List_ListedOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.Categories.Create(ctx, "Parts")
	require.NoError(t, err)

	env.mustCreateProduct(t, "Hidden", 10, 1)
	src := writeTempImage(t)
	visible, err := env.Products.Create(ctx, CreateProductInput{
		Name:        "Visible",
		Price:       20,
		Description: "shown in the store",
		CategoryID:  &category.ID,
		Stock:       1,
		ImageSource: &src,
	})
	require.NoError(t, err)
	_, err = env.Products.SetListed(ctx, visible.ID, true)
	require.NoError(t, err)

	total, products, err := env.Products.List(ctx, true, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Visible", products[0].Name)

	total, products, err = env.Products.List(ctx, false, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, products, 2)
}

func TestProductService_SearchStore_SQLFallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.Categories.Create(ctx, "Wheels")
	require.NoError(t, err)

	src := writeTempImage(t)
	product, err := env.Products.Create(ctx, CreateProductInput{
		Name:        "Carbon Wheelset",
		Price:       899,
		Description: "lightweight racing wheels",
		CategoryID:  &category.ID,
		Stock:       2,
		ImageSource: &src,
	})
	require.NoError(t, err)
	_, err = env.Products.SetListed(ctx, product.ID, true)
	require.NoError(t, err)

	total, results, err := env.Products.SearchStore(ctx, "wheel", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "Carbon Wheelset", results[0].Name)

	total, results, err = env.Products.SearchStore(ctx, "saddle", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, results)
}
