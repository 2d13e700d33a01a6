package media

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/photo-bed/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://cdn.test/media"

type countingTransformer struct {
	calls atomic.Int32
}

func (c *countingTransformer) Apply(ctx context.Context, data []byte, params TransformParams) ([]byte, error) {
	c.calls.Add(1)
	return []byte("variant:" + params.Segment()), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func newTestStore(t *testing.T) (*StorageStore, storage.Provider, *countingTransformer) {
	t.Helper()
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	tr := &countingTransformer{}
	s := NewStorageStore(provider, tr, testBaseURL+"/")
	s.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }
	return s, provider, tr
}

func readKey(t *testing.T, p storage.Provider, key string) string {
	t.Helper()
	r, err := p.GetWithContext(context.Background(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
	return string(data)
}

func TestStorageStore_Upload(t *testing.T) {
	s, provider, _ := newTestStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, pngBytes(t), UploadOptions{Folder: "photos", PublicID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/photos/2024/01/15/abc.png", url)

	exists, err := provider.Exists(ctx, "photos/2024/01/15/abc.png")
	require.NoError(t, err)
	assert.True(t, exists)

	// 生成随机 public id
	url, err = s.Upload(ctx, pngBytes(t), UploadOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, testBaseURL+"/photos/2024/01/15/"))

	// 指定键时覆盖写入
	_, err = s.Upload(ctx, []byte("one"), UploadOptions{Key: "qr/photo_1.png"})
	require.NoError(t, err)
	url, err = s.Upload(ctx, []byte("two"), UploadOptions{Key: "qr/photo_1.png"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/qr/photo_1.png", url)
	assert.Equal(t, "two", readKey(t, provider, "qr/photo_1.png"))

	_, err = s.Upload(ctx, nil, UploadOptions{})
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = s.Upload(ctx, []byte("x"), UploadOptions{Key: "../evil"})
	assert.Error(t, err)
}

func TestStorageStore_TransformURL(t *testing.T) {
	s, _, _ := newTestStore(t)
	base := testBaseURL + "/photos/2024/01/15/abc.jpg"

	u1, err := s.TransformURL(base, TransformParams{Width: 100, Height: 100})
	require.NoError(t, err)
	u2, err := s.TransformURL(base, TransformParams{Height: 100, Width: 100, Crop: "SCALE"})
	require.NoError(t, err)
	assert.Equal(t, u1, u2)
	assert.Equal(t, testBaseURL+"/transformed/w_100-h_100-c_scale/photos/2024/01/15/abc.jpg", u1)

	u3, err := s.TransformURL(base, TransformParams{Effect: "grayscale", FetchFormat: "webp"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/transformed/e_grayscale-f_webp/photos/2024/01/15/abc.webp", u3)

	_, err = s.TransformURL("https://elsewhere.test/a.jpg", TransformParams{Width: 1})
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = s.TransformURL(base, TransformParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestStorageStore_TransformIdempotent(t *testing.T) {
	s, provider, tr := newTestStore(t)
	ctx := context.Background()

	base, err := s.Upload(ctx, pngBytes(t), UploadOptions{PublicID: "abc"})
	require.NoError(t, err)

	params := TransformParams{Width: 10, Height: 10, Crop: "fill"}
	first, err := s.Transform(ctx, base, params)
	require.NoError(t, err)
	second, err := s.Transform(ctx, base, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), tr.calls.Load())

	key, err := s.KeyFromURL(first)
	require.NoError(t, err)
	assert.Equal(t, "variant:w_10-h_10-c_fill", readKey(t, provider, key))
}

func TestStorageStore_TransformMissingSource(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Transform(context.Background(), testBaseURL+"/photos/missing.png", TransformParams{Width: 10})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorageStore_Destroy(t *testing.T) {
	s, provider, _ := newTestStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, pngBytes(t), UploadOptions{PublicID: "gone"})
	require.NoError(t, err)

	require.NoError(t, s.Destroy(ctx, url))
	exists, err := provider.Exists(ctx, "photos/2024/01/15/gone.png")
	require.NoError(t, err)
	assert.False(t, exists)

	// 重复删除视为成功
	assert.NoError(t, s.Destroy(ctx, url))

	assert.ErrorIs(t, s.Destroy(ctx, "https://other.test/x.png"), ErrForeignURL)
}
