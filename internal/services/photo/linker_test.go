package photo

import (
	"context"
	"testing"

	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTagNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"comma separated", []string{"cat, outdoor"}, []string{"cat", "outdoor"}},
		{"dedup keeps first", []string{"Cat", "dog,#cat", "DOG"}, []string{"cat", "dog"}},
		{"empties dropped", []string{" , ,", "", "#"}, []string{}},
		{"inner whitespace", []string{"  Street   Art "}, []string{"street art"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTagNames(tt.in))
		})
	}
}

func TestLinker_AttachIsIdempotent(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "linker", models.RoleUser)
	p := &models.Photo{UserID: user.ID, FileURL: "https://media.test/photos/1.png"}
	require.NoError(t, db.Create(p).Error)

	linker := NewLinker(tags.NewRepository(db))

	first, err := linker.Attach(ctx, nil, []string{"cat", "outdoor", "Cat"}, p.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "cat", first[0].Name)
	assert.Equal(t, "outdoor", first[1].Name)

	second, err := linker.Attach(ctx, nil, []string{"outdoor,cat"}, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)

	var links int64
	require.NoError(t, db.Model(&models.PhotoTag{}).Where("photo_id = ?", p.ID).Count(&links).Error)
	assert.EqualValues(t, 2, links)
}

func TestLinker_Detach(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "detach", models.RoleUser)
	p := &models.Photo{UserID: user.ID, FileURL: "https://media.test/photos/2.png"}
	require.NoError(t, db.Create(p).Error)

	linker := NewLinker(tags.NewRepository(db))
	_, err := linker.Attach(ctx, nil, []string{"sky"}, p.ID)
	require.NoError(t, err)

	removed, err := linker.Detach(ctx, nil, "#SKY", p.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// 关联与标签不存在都不是错误
	removed, err = linker.Detach(ctx, nil, "sky", p.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = linker.Detach(ctx, nil, "never-created", p.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	// 标签行保留
	var n int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "sky").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
