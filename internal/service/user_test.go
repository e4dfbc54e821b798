package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/veloshop/internal/models"
)

func (env *testEnv) mustCreateAdmin(t *testing.T, username string) *models.User {
	t.Helper()

	admin, err := env.Users.Create(context.Background(), CreateUserInput{
		Username: username,
		Password: "Temp12345",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	return admin
}

func TestUserService_Create_ForcesPasswordChange(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.Users.Create(ctx, CreateUserInput{
		Username: "newhire",
		Password: "Temp12345",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.False(t, user.PasswordChanged, "admin-created accounts must rotate their password")

	res, err := env.Auth.Login(ctx, "newhire", "Temp12345")
	require.NoError(t, err)
	assert.False(t, res.PasswordChanged)

	_, err = env.Users.Create(ctx, CreateUserInput{Username: "newhire", Password: "x", Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.Users.Create(ctx, CreateUserInput{Username: "weird", Password: "x", Role: "superuser"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "renameme")

	first, last, age := "Ada", "Lovelace", 36
	updated, err := env.Users.Update(ctx, user.ID, UpdateUserInput{FirstName: &first, LastName: &last, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, 36, updated.Age)

	_, err = env.Users.Update(ctx, 9999, UpdateUserInput{FirstName: &first})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_Delete_ProtectsLastAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustCreateAdmin(t, "root")

	err := env.Users.Delete(ctx, admin.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLastAdmin)

	// with a second admin the first becomes deletable
	env.mustCreateAdmin(t, "backup")
	require.NoError(t, env.Users.Delete(ctx, admin.ID))

	_, err = env.Users.Get(ctx, admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_Delete_ClearsCart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.mustRegister(t, "leaver")
	product := env.mustCreateProduct(t, "Saddle", 50, 2)

	_, err := env.Cart.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.Users.Delete(ctx, user.ID))

	lines, err := env.Cart.Items(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUserService_SetRole_ProtectsLastAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.mustCreateAdmin(t, "onlyadmin")

	_, err := env.Users.SetRole(ctx, admin.ID, models.RoleUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLastAdmin)

	env.mustCreateAdmin(t, "secondadmin")
	demoted, err := env.Users.SetRole(ctx, admin.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, demoted.Role)

	promoted, err := env.Users.SetRole(ctx, demoted.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	_, err = env.Users.SetRole(ctx, admin.ID, "owner")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_EnsureDefaultAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Users.EnsureDefaultAdmin(ctx, "admin", "admin"))

	admin, err := env.Repo.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.PasswordChanged, "bootstrap credentials must be rotated")

	// idempotent while an admin exists
	require.NoError(t, env.Users.EnsureDefaultAdmin(ctx, "admin", "admin"))
	users, err := env.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
