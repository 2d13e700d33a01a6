package photo

import (
	"context"
	"strings"
	"testing"

	"github.com/anoixa/photo-bed/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagNames(r *PhotoResult) []string {
	names := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		names[i] = t.Name
	}
	return names
}

func TestAddTagsToPhoto(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxTags = 3 })
	ctx := context.Background()
	p := f.upload(t, "", "cat")

	got, err := f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{"dog, Cat"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cat", "dog"}, tagNames(got))

	// 已有标签不计入新增
	got, err = f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{"cat", "dog", "bird"})
	require.NoError(t, err)
	assert.Len(t, got.Tags, 3)

	_, err = f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{"fish"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{" , "})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.AddTagsToPhoto(ctx, f.owner, 999, []string{"fish"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestTagNameTooLong_IsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.upload(t, "", "cat")
	long := strings.Repeat("a", 51)

	_, err := f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{long})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	uploadsBefore, _ := f.store.counts()
	_, err = f.svc.UploadPhoto(ctx, f.owner, UploadInput{Tags: []string{long}, Data: pngBytes})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	// 校验先于上传，不产生远端资源
	uploadsAfter, _ := f.store.counts()
	assert.Equal(t, uploadsBefore, uploadsAfter)

	// 50 个字符仍然允许
	got, err := f.svc.AddTagsToPhoto(ctx, f.owner, p.Photo.ID, []string{strings.Repeat("b", 50)})
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)
}

func TestRemoveTagFromPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.upload(t, "", "cat", "dog")

	got, err := f.svc.RemoveTagFromPhoto(ctx, f.owner, p.Photo.ID, "CAT")
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, tagNames(got))

	got, err = f.svc.RemoveTagFromPhoto(ctx, f.admin, p.Photo.ID, "unknown")
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, tagNames(got))

	_, err = f.svc.RemoveTagFromPhoto(ctx, f.other, p.Photo.ID, "dog")
	assert.True(t, IsKind(err, KindForbidden))
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(&config.Config{TagsMaxCount: 7, MediaFolder: "uploads"})
	assert.Equal(t, 7, cfg.MaxTags)
	assert.Equal(t, "uploads", cfg.Folder)
}
