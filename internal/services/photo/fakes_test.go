package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/dbtest"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const fakeBaseURL = "https://media.test"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake")

// fakeStore 内存版媒体存储
type fakeStore struct {
	mu             sync.Mutex
	assets         map[string][]byte
	seq            int
	uploads        int
	transforms     int
	destroyed      []string
	uploadErr      error
	failDestroy    map[string]error
	transformDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{assets: make(map[string][]byte), failDestroy: make(map[string]error)}
}

func (s *fakeStore) Upload(ctx context.Context, data []byte, opts media.UploadOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if len(data) == 0 {
		return "", media.ErrEmptyPayload
	}
	key := opts.Key
	if key == "" {
		s.seq++
		key = fmt.Sprintf("%s/%d.png", opts.Folder, s.seq)
	}
	s.uploads++
	url := fakeBaseURL + "/" + key
	s.assets[url] = data
	return url, nil
}

func (s *fakeStore) TransformURL(baseURL string, params media.TransformParams) (string, error) {
	if !strings.HasPrefix(baseURL, fakeBaseURL+"/") {
		return "", media.ErrForeignURL
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/transformed/%s/%s", fakeBaseURL, params.Segment(), strings.TrimPrefix(baseURL, fakeBaseURL+"/")), nil
}

func (s *fakeStore) Transform(ctx context.Context, baseURL string, params media.TransformParams) (string, error) {
	target, err := s.TransformURL(baseURL, params)
	if err != nil {
		return "", err
	}
	if s.transformDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.transformDelay):
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transforms++
	s.assets[target] = []byte("variant")
	return target, nil
}

func (s *fakeStore) Destroy(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDestroy[url]; err != nil {
		return err
	}
	s.destroyed = append(s.destroyed, url)
	delete(s.assets, url)
	return nil
}

func (s *fakeStore) has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[url]
	return ok
}

func (s *fakeStore) counts() (uploads, transforms int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads, s.transforms
}

// fakeQR 记录渲染次数
type fakeQR struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *fakeQR) Render(data string, colors media.QRColors) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("qr:" + data), nil
}

func (r *fakeQR) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	svc      *Service
	provider database.Provider
	store    *fakeStore
	qr       *fakeQR
	db       *gorm.DB
	owner    auth.Caller
	other    auth.Caller
	admin    auth.Caller
	mod      auth.Caller
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()

	provider := dbtest.NewProvider(t)
	db := provider.DB()
	store := newFakeStore()
	qr := &fakeQR{}

	memory, err := cache.NewMemoryCache(cache.DefaultMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })

	cfg := Config{MaxTags: DefaultMaxTags, MediaTimeout: 2 * time.Second, Folder: "photos"}
	for _, opt := range opts {
		opt(&cfg)
	}

	caller := func(u *models.User) auth.Caller {
		return auth.Caller{ID: u.ID, Username: u.Username, Role: u.Role}
	}

	return &fixture{
		svc:      NewService(provider, store, qr, cache.NewHelper(memory), nil, cfg),
		provider: provider,
		store:    store,
		qr:       qr,
		db:       db,
		owner:    caller(dbtest.SeedUser(t, db, "owner", models.RoleUser)),
		other:    caller(dbtest.SeedUser(t, db, "other", models.RoleUser)),
		admin:    caller(dbtest.SeedUser(t, db, "admin", models.RoleAdmin)),
		mod:      caller(dbtest.SeedUser(t, db, "mod", models.RoleModerator)),
	}
}

func (f *fixture) upload(t *testing.T, description string, tagNames ...string) *PhotoResult {
	t.Helper()
	var desc *string
	if description != "" {
		desc = &description
	}
	result, err := f.svc.UploadPhoto(context.Background(), f.owner, UploadInput{
		Description: desc,
		Tags:        tagNames,
		Data:        pngBytes,
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

var errRemote = errors.New("remote unavailable")
