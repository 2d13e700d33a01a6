package photo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/photos"
	"github.com/anoixa/photo-bed/database/repo/tags"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// OrderOldest 按创建时间升序，其余取值均为降序
const OrderOldest = "oldest"

// SearchQuery 搜索条件，PerPage <= 0 表示不分页
type SearchQuery struct {
	UserID  *uint
	Keyword string
	Tag     string
	OrderBy string
	Page    int
	PerPage int
}

// QueryService 照片查询
type QueryService struct {
	photos      *photos.Repository
	tags        *tags.Repository
	cacheHelper *cache.Helper
	group       singleflight.Group
}

// NewQueryService 创建查询服务，cacheHelper 为空时不使用缓存
func NewQueryService(db *gorm.DB, cacheHelper *cache.Helper) *QueryService {
	if cacheHelper == nil {
		cacheHelper = cache.NewHelper(nil)
	}
	return &QueryService{
		photos:      photos.NewRepository(db),
		tags:        tags.NewRepository(db),
		cacheHelper: cacheHelper,
	}
}

// GetByID 获取照片及其标签
func (s *QueryService) GetByID(ctx context.Context, photoID uint) (*PhotoResult, error) {
	if s.cacheHelper.IsPhotoMissing(ctx, photoID) {
		return nil, notFound(fmt.Sprintf("photo %d not found", photoID))
	}

	var cached PhotoResult
	if err := s.cacheHelper.GetCachedPhoto(ctx, photoID, &cached); err == nil {
		return &cached, nil
	}

	v, err, _ := s.group.Do(strconv.FormatUint(uint64(photoID), 10), func() (interface{}, error) {
		return s.loadAndCache(ctx, photoID)
	})
	if err != nil {
		return nil, err
	}
	result := *v.(*PhotoResult)
	return &result, nil
}

func (s *QueryService) loadAndCache(ctx context.Context, photoID uint) (*PhotoResult, error) {
	p, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, internal("failed to load photo", err)
	}
	if p == nil {
		if err := s.cacheHelper.MarkPhotoMissing(ctx, photoID); err != nil {
			log.WithError(err).Debug("Failed to mark photo missing")
		}
		return nil, notFound(fmt.Sprintf("photo %d not found", photoID))
	}

	results, err := s.decorate(ctx, []models.Photo{*p})
	if err != nil {
		return nil, err
	}
	if err := s.cacheHelper.CachePhoto(ctx, photoID, &results[0]); err != nil {
		log.WithError(err).WithField("photo_id", photoID).Debug("Failed to cache photo")
	}
	return &results[0], nil
}

// MarkDeleted 照片删除提交后调用，之后的读取一律返回 NotFound
func (s *QueryService) MarkDeleted(ctx context.Context, photoID uint) {
	if err := s.cacheHelper.MarkPhotoDeleted(ctx, photoID); err != nil {
		log.WithError(err).WithField("photo_id", photoID).Warn("Failed to mark deleted photo in cache")
	}
}

// Invalidate 清除照片缓存
func (s *QueryService) Invalidate(ctx context.Context, photoID uint) {
	if err := s.cacheHelper.DeleteCachedPhoto(ctx, photoID); err != nil {
		log.WithError(err).WithField("photo_id", photoID).Warn("Failed to invalidate photo cache")
	}
}

// pageBounds 校验分页参数，返回 offset 与 limit
func pageBounds(page, perPage int) (int, int, error) {
	if page < 1 {
		return 0, 0, validation("page must be >= 1", nil)
	}
	if perPage <= 0 {
		return 0, 0, validation("per_page must be > 0", nil)
	}
	if perPage > photos.MaxPageSize {
		perPage = photos.MaxPageSize
	}
	return (page - 1) * perPage, perPage, nil
}

// ListAll 分页列出全部照片，最新的在前
func (s *QueryService) ListAll(ctx context.Context, page, perPage int) ([]PhotoResult, error) {
	offset, limit, err := pageBounds(page, perPage)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, photos.ListOptions{Offset: offset, Limit: limit})
}

// ListByUser 分页列出用户的照片，用户不存在时返回空列表
func (s *QueryService) ListByUser(ctx context.Context, userID uint, page, perPage int) ([]PhotoResult, error) {
	offset, limit, err := pageBounds(page, perPage)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, photos.ListOptions{UserID: &userID, Offset: offset, Limit: limit})
}

// Search 按关键字与标签搜索，条件之间为 AND
func (s *QueryService) Search(ctx context.Context, q SearchQuery) ([]PhotoResult, error) {
	opts := photos.ListOptions{
		UserID:    q.UserID,
		Keyword:   q.Keyword,
		Ascending: strings.EqualFold(strings.TrimSpace(q.OrderBy), OrderOldest),
	}

	if strings.TrimSpace(q.Tag) != "" {
		tag, err := s.tags.GetByName(ctx, q.Tag)
		if err != nil {
			return nil, internal("failed to look up tag", err)
		}
		if tag == nil {
			return []PhotoResult{}, nil
		}
		opts.TagID = &tag.ID
	}

	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		offset, limit, err := pageBounds(page, q.PerPage)
		if err != nil {
			return nil, err
		}
		opts.Offset, opts.Limit = offset, limit
	}
	return s.list(ctx, opts)
}

func (s *QueryService) list(ctx context.Context, opts photos.ListOptions) ([]PhotoResult, error) {
	list, err := s.photos.List(ctx, opts)
	if err != nil {
		return nil, internal("failed to list photos", err)
	}
	return s.decorate(ctx, list)
}

// decorate 批量附加标签
func (s *QueryService) decorate(ctx context.Context, list []models.Photo) ([]PhotoResult, error) {
	results := make([]PhotoResult, 0, len(list))
	if len(list) == 0 {
		return results, nil
	}

	ids := make([]uint, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	byPhoto, err := s.tags.ListByPhotoIDs(ctx, ids)
	if err != nil {
		return nil, internal("failed to load tags", err)
	}

	for _, p := range list {
		t := byPhoto[p.ID]
		if t == nil {
			t = []models.Tag{}
		}
		results = append(results, PhotoResult{Photo: p, Tags: t})
	}
	return results, nil
}
