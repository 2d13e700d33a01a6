package cmd

import (
	"context"
	"testing"

	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTables(t *testing.T) {
	source := dbtest.NewDB(t)
	target := dbtest.NewDB(t)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, source, "alice", models.RoleUser)
	repo := tags.NewRepository(source)
	for i, url := range []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg", "https://cdn.test/c.jpg"} {
		p := &models.Photo{UserID: owner.ID, FileURL: url}
		require.NoError(t, source.Create(p).Error)
		tag, err := repo.GetOrCreate(ctx, []string{"x", "y", "x"}[i])
		require.NoError(t, err)
		_, err = repo.Link(ctx, p.ID, tag.ID)
		require.NoError(t, err)
	}
	require.NoError(t, source.Create(&models.PhotoURL{PhotoID: 1, FileURL: "https://cdn.test/v/a.jpg"}).Error)

	copied, err := copyTables(ctx, source, target, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), copied["users"])
	assert.Equal(t, int64(3), copied["photos"])
	assert.Equal(t, int64(2), copied["tags"])
	assert.Equal(t, int64(3), copied["photo_tags"])
	assert.Equal(t, int64(1), copied["photo_urls"])

	var photos []models.Photo
	require.NoError(t, target.Order("id").Find(&photos).Error)
	require.Len(t, photos, 3)
	assert.Equal(t, "https://cdn.test/c.jpg", photos[2].FileURL)

	// 再次复制时已存在的行被跳过
	copied, err = copyTables(ctx, source, target, 2, false)
	require.NoError(t, err)
	assert.Zero(t, copied["photos"])
}

func TestRunClean(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := tags.NewRepository(db)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "lonely")
	require.NoError(t, err)

	require.NoError(t, runClean(ctx, repo, true))
	orphans, err := repo.ListOrphans(ctx)
	require.NoError(t, err)
	assert.Len(t, orphans, 1)

	require.NoError(t, runClean(ctx, repo, false))
	orphans, err = repo.ListOrphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
