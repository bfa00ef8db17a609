package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, models.RegisterRequest{Username: " sunita ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sunita", u.Username)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = f.users.Register(ctx, models.RegisterRequest{Username: "sunita", Password: "another1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.users.Register(ctx, models.RegisterRequest{Username: "", Password: "123"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, apperr.FieldErrors(err), 2)

	got, err := f.users.Authenticate(ctx, models.LoginRequest{Username: "sunita", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Authenticate(ctx, models.LoginRequest{Username: "sunita", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.users.Authenticate(ctx, models.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSetRoleAndEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.SetRole(ctx, "ravi", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = f.users.SetRole(ctx, "ghost", models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.users.SetRole(ctx, "ravi", models.Role("superuser"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	created, err := f.users.EnsureAdmin(ctx, "owner", "bazaar123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)

	promoted, err := f.users.EnsureAdmin(ctx, "meena", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
