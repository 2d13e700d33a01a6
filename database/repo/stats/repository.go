package stats

import (
	"context"
	"time"

	"github.com/anoixa/photo-bed/database/models"
	"gorm.io/gorm"
)

// Repository 统计仓库，只读
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OverviewStats 概览统计
type OverviewStats struct {
	PhotoTotal   int64
	DerivedTotal int64
	TagTotal     int64
	UserTotal    int64
}

// GetOverviewStats 获取概览统计
func (r *Repository) GetOverviewStats(ctx context.Context) (*OverviewStats, error) {
	var result OverviewStats
	db := r.db.WithContext(ctx)

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Photo{}, &result.PhotoTotal},
		{&models.PhotoURL{}, &result.DerivedTotal},
		{&models.Tag{}, &result.TagTotal},
		{&models.User{}, &result.UserTotal},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// CountPhotosSince 统计 since 之后上传的照片数
func (r *Repository) CountPhotosSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// PhotoCreatedTimes 返回 since 之后照片的创建时间，按天分组在调用方完成以兼容不同数据库
func (r *Repository) PhotoCreatedTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("created_at >= ?", since).
		Order("created_at").
		Pluck("created_at", &times).Error
	return times, err
}

// TagCount 标签使用次数
type TagCount struct {
	Name  string
	Count int64
}

// GetTopTags 使用次数最多的标签
func (r *Repository) GetTopTags(ctx context.Context, limit int) ([]TagCount, error) {
	var result []TagCount
	err := r.db.WithContext(ctx).Table("photo_tags").
		Select("tags.name AS name, COUNT(*) AS count").
		Joins("JOIN tags ON tags.id = photo_tags.tag_id").
		Group("tags.id, tags.name").
		Order("count DESC, tags.name").
		Limit(limit).
		Scan(&result).Error
	return result, err
}
