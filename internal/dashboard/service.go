// Package dashboard 管理端统计概览
package dashboard

import (
	"context"
	"time"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/database/repo/stats"
	log "github.com/sirupsen/logrus"
)

const (
	statsCacheKey = "dashboard:stats"
	trendDays     = 30
	topTagsLimit  = 10
)

// StatsRepository 统计仓库接口
type StatsRepository interface {
	GetOverviewStats(ctx context.Context) (*stats.OverviewStats, error)
	CountPhotosSince(ctx context.Context, since time.Time) (int64, error)
	PhotoCreatedTimes(ctx context.Context, since time.Time) ([]time.Time, error)
	GetTopTags(ctx context.Context, limit int) ([]stats.TagCount, error)
}

// Service Dashboard 统计服务
type Service struct {
	repo     StatsRepository
	cache    cache.Provider
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService 创建统计服务，cacheProvider 可以为 nil
func NewService(repo StatsRepository, cacheProvider cache.Provider) *Service {
	return &Service{
		repo:     repo,
		cache:    cacheProvider,
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
	}
}

// StatsResponse Dashboard 统计响应
type StatsResponse struct {
	Overview OverviewStats `json:"overview"`
	TopTags  []TagStat     `json:"top_tags"`
	Trend    TrendStats    `json:"trend"`
}

// OverviewStats 概览统计
type OverviewStats struct {
	Photos  PhotoStats `json:"photos"`
	Derived CountStats `json:"derived"`
	Tags    CountStats `json:"tags"`
	Users   CountStats `json:"users"`
}

// PhotoStats 照片统计
type PhotoStats struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"this_week"`
	ThisMonth int64 `json:"this_month"`
}

// CountStats 数量统计
type CountStats struct {
	Total int64 `json:"total"`
}

// TagStat 标签使用统计
type TagStat struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TrendStats 趋势统计
type TrendStats struct {
	Period string   `json:"period"`
	Dates  []string `json:"dates"`
	Data   []int64  `json:"data"`
}

// GetStats 获取 Dashboard 统计数据
func (s *Service) GetStats(ctx context.Context) (*StatsResponse, error) {
	if s.cache != nil {
		var cached StatsResponse
		if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverviewStats(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := startOfDay(now)
	// 周一为一周开始
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	photos := PhotoStats{Total: overview.PhotoTotal}
	for _, c := range []struct {
		since time.Time
		dest  *int64
	}{
		{today, &photos.Today},
		{weekStart, &photos.ThisWeek},
		{monthStart, &photos.ThisMonth},
	} {
		if *c.dest, err = s.repo.CountPhotosSince(ctx, c.since); err != nil {
			return nil, err
		}
	}

	top, err := s.repo.GetTopTags(ctx, topTagsLimit)
	if err != nil {
		return nil, err
	}
	topTags := make([]TagStat, len(top))
	for i, t := range top {
		topTags[i] = TagStat{Name: t.Name, Count: t.Count}
	}

	trendStart := today.AddDate(0, 0, -(trendDays - 1))
	times, err := s.repo.PhotoCreatedTimes(ctx, trendStart)
	if err != nil {
		return nil, err
	}

	response := &StatsResponse{
		Overview: OverviewStats{
			Photos:  photos,
			Derived: CountStats{Total: overview.DerivedTotal},
			Tags:    CountStats{Total: overview.TagTotal},
			Users:   CountStats{Total: overview.UserTotal},
		},
		TopTags: topTags,
		Trend:   buildTrendData(times, today, trendDays),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, response, s.cacheTTL); err != nil {
			log.WithError(err).Debug("Failed to cache dashboard stats")
		}
	}
	return response, nil
}

// RefreshCache 刷新统计数据缓存
func (s *Service) RefreshCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, statsCacheKey)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// buildTrendData 按天汇总，截止到 today，没有数据的天数补0
func buildTrendData(times []time.Time, today time.Time, days int) TrendStats {
	dates := make([]string, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		dates[i] = date
		index[date] = i
	}

	data := make([]int64, days)
	for _, t := range times {
		if i, ok := index[t.In(today.Location()).Format("2006-01-02")]; ok {
			data[i]++
		}
	}

	return TrendStats{
		Period: "30d",
		Dates:  dates,
		Data:   data,
	}
}
