package tags

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Sunset ", "sunset"},
		{"#Sunset", "sunset"},
		{"##beach  day", "beach day"},
		{"New\tYork\n City", "new york city"},
		{"   ", ""},
		{"#", ""},
		{"# travel", "travel"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestRepository_GetOrCreate(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, " Sunset")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, "sunset", first.Name)

	second, err := repo.GetOrCreate(ctx, "#SUNSET ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_GetOrCreate_Invalid(t *testing.T) {
	repo := NewRepository(dbtest.NewDB(t))
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "  # ")
	assert.ErrorIs(t, err, ErrEmptyTagName)

	_, err = repo.GetOrCreate(ctx, strings.Repeat("a", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrTagNameTooLong)
}

// TestRepository_GetOrCreate_Concurrent 并发创建同名标签只产生一行
func TestRepository_GetOrCreate_Concurrent(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := repo.GetOrCreate(ctx, "Travel")
			errs[i] = err
			if tag != nil {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "travel").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_LinkUnlink(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, db, "alice", models.RoleUser)
	photo := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/a.jpg"}
	require.NoError(t, db.Create(photo).Error)

	tag, err := repo.GetOrCreate(ctx, "cat")
	require.NoError(t, err)

	created, err := repo.Link(ctx, photo.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Link(ctx, photo.ID, tag.ID)
	require.NoError(t, err)
	assert.False(t, created, "duplicate link must be a no-op")

	count, err := repo.CountByPhotoID(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	removed, err := repo.Unlink(ctx, photo.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Unlink(ctx, photo.ID, tag.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	// 标签本身保留
	exists, err := repo.Exists(ctx, tag.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_ListByPhotoIDs(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, db, "bob", models.RoleUser)
	p1 := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/1.jpg"}
	p2 := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/2.jpg"}
	p3 := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/3.jpg"}
	require.NoError(t, db.Create(p1).Error)
	require.NoError(t, db.Create(p2).Error)
	require.NoError(t, db.Create(p3).Error)

	cat, _ := repo.GetOrCreate(ctx, "cat")
	dog, _ := repo.GetOrCreate(ctx, "dog")
	_, _ = repo.Link(ctx, p1.ID, dog.ID)
	_, _ = repo.Link(ctx, p1.ID, cat.ID)
	_, _ = repo.Link(ctx, p2.ID, cat.ID)

	byPhoto, err := repo.ListByPhotoIDs(ctx, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)

	require.Len(t, byPhoto[p1.ID], 2)
	assert.Equal(t, "cat", byPhoto[p1.ID][0].Name)
	assert.Equal(t, "dog", byPhoto[p1.ID][1].Name)
	require.Len(t, byPhoto[p2.ID], 1)
	assert.Empty(t, byPhoto[p3.ID])

	single, err := repo.ListByPhotoID(ctx, p3.ID)
	require.NoError(t, err)
	assert.NotNil(t, single)
	assert.Empty(t, single)
}

func TestRepository_Orphans(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, db, "alice", models.RoleUser)
	photo := &models.Photo{UserID: owner.ID, FileURL: "https://cdn.test/o.jpg"}
	require.NoError(t, db.Create(photo).Error)

	used, err := repo.GetOrCreate(ctx, "used")
	require.NoError(t, err)
	_, err = repo.Link(ctx, photo.ID, used.ID)
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, "stale")
	require.NoError(t, err)

	orphans, err := repo.ListOrphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "stale", orphans[0].Name)

	n, err := repo.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tag, err := repo.GetByName(ctx, "used")
	require.NoError(t, err)
	assert.NotNil(t, tag)
}
