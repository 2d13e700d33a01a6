package stats

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	tagRepo := tags.NewRepository(db)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, db, "alice", models.RoleUser)
	now := time.Now()
	old := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/old.jpg", CreatedAt: now.AddDate(0, 0, -40)}
	fresh := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/new.jpg"}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(fresh).Error)
	require.NoError(t, db.Create(&models.PhotoURL{PhotoID: fresh.ID, FileURL: "https://cdn.test/v/new.jpg"}).Error)

	for _, link := range []struct {
		photo *models.Photo
		name  string
	}{{old, "sea"}, {fresh, "sea"}, {fresh, "sky"}} {
		tag, err := tagRepo.GetOrCreate(ctx, link.name)
		require.NoError(t, err)
		_, err = tagRepo.Link(ctx, link.photo.ID, tag.ID)
		require.NoError(t, err)
	}

	overview, err := repo.GetOverviewStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &OverviewStats{PhotoTotal: 2, DerivedTotal: 1, TagTotal: 2, UserTotal: 1}, overview)

	n, err := repo.CountPhotosSince(ctx, now.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	times, err := repo.PhotoCreatedTimes(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Len(t, times, 1)

	top, err := repo.GetTopTags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, TagCount{Name: "sea", Count: 2}, top[0])
}
