package users

import (
	"context"
	"testing"

	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callerOf(u *models.User) auth.Caller {
	return auth.Caller{ID: u.ID, Username: u.Username, Role: u.Role}
}

func TestService_List(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()

	admin := dbtest.SeedUser(t, db, "admin", models.RoleAdmin)
	mod := dbtest.SeedUser(t, db, "mod", models.RoleModerator)
	user := dbtest.SeedUser(t, db, "alice", models.RoleUser)

	list, err := svc.List(ctx, callerOf(admin), ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = svc.List(ctx, callerOf(mod), ListQuery{Mask: "ali"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, user.ID, list[0].ID)

	_, err = svc.List(ctx, callerOf(user), ListQuery{})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Get(ctx, callerOf(admin), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ToggleBan(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()

	admin := dbtest.SeedUser(t, db, "admin", models.RoleAdmin)
	mod := dbtest.SeedUser(t, db, "mod", models.RoleModerator)
	user := dbtest.SeedUser(t, db, "bob", models.RoleUser)

	got, err := svc.ToggleBan(ctx, callerOf(mod), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned)

	got, err = svc.ToggleBan(ctx, callerOf(admin), user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned)

	_, err = svc.ToggleBan(ctx, callerOf(mod), admin.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.ToggleBan(ctx, callerOf(admin), admin.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.ToggleBan(ctx, callerOf(user), mod.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestService_SetRole(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()

	admin := dbtest.SeedUser(t, db, "admin", models.RoleAdmin)
	mod := dbtest.SeedUser(t, db, "mod", models.RoleModerator)
	user := dbtest.SeedUser(t, db, "carol", models.RoleUser)

	got, err := svc.SetRole(ctx, callerOf(mod), user.ID, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, got.Role)

	_, err = svc.SetRole(ctx, callerOf(mod), user.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.SetRole(ctx, callerOf(admin), user.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	got, err = svc.SetRole(ctx, callerOf(admin), user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	_, err = svc.SetRole(ctx, callerOf(admin), 999, models.RoleUser)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
