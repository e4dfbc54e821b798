package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_Add_MergesAndBoundsByStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "shopper")
	product := env.mustCreateProduct(t, "Chain", 29.90, 3)

	item, err := env.Cart.Add(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, item.Quantity)

	// merging into the same line
	item, err = env.Cart.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, item.Quantity)

	_, err = env.Cart.Add(ctx, user.ID, product.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStockExceeded)

	lines, err := env.Cart.Items(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 3, lines[0].Quantity, "a rejected add must not change the line")
}

func TestCartService_Add_DefaultsToOne(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "lazy")
	product := env.mustCreateProduct(t, "Bell", 12, 5)

	item, err := env.Cart.Add(ctx, user.ID, product.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, item.Quantity)
}

func TestCartService_Add_UnknownProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.mustRegister(t, "ghost-hunter")

	_, err := env.Cart.Add(context.Background(), user.ID, 9999, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_SetQuantity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "fiddler")
	product := env.mustCreateProduct(t, "Tube", 8.50, 4)

	_, err := env.Cart.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	item, removed, err := env.Cart.SetQuantity(ctx, user.ID, product.ID, 4)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.EqualValues(t, 4, item.Quantity)

	_, _, err = env.Cart.SetQuantity(ctx, user.ID, product.ID, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStockExceeded)

	// zero removes the line
	_, removed, err = env.Cart.SetQuantity(ctx, user.ID, product.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	lines, err := env.Cart.Items(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartService_Items_JoinsProductFields(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "reader")
	product := env.mustCreateProduct(t, "Lock", 35, 2)

	_, err := env.Cart.Add(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)

	lines, err := env.Cart.Items(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Lock", lines[0].Name)
	assert.Equal(t, 35.0, lines[0].Price)
	assert.EqualValues(t, 2, lines[0].Quantity)
}

func TestCartService_Clear(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "sweeper")
	a := env.mustCreateProduct(t, "Light", 15, 3)
	b := env.mustCreateProduct(t, "Fender", 22, 3)

	_, err := env.Cart.Add(ctx, user.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = env.Cart.Add(ctx, user.ID, b.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.Cart.Clear(ctx, user.ID))

	lines, err := env.Cart.Items(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
