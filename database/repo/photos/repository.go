package photos

import (
	"context"
	"fmt"
	"strings"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/base"
	"gorm.io/gorm"
)

// MaxPageSize 单页最大条数
const MaxPageSize = 100

// ListOptions 列表与搜索的过滤条件，零值表示不过滤
type ListOptions struct {
	UserID    *uint
	Keyword   string
	TagID     *uint
	Ascending bool
	Offset    int
	// Limit <= 0 表示不分页
	Limit int
}

// Repository 照片仓库
type Repository struct {
	base.Repository[models.Photo]
}

// NewRepository 创建照片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: base.NewRepository[models.Photo](db)}
}

// WithTx 返回绑定到事务的仓库
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// GetByFileURL 通过文件地址查找
func (r *Repository) GetByFileURL(ctx context.Context, fileURL string) (*models.Photo, error) {
	return r.FirstByCondition(ctx, "file_url = ?", fileURL)
}

// UpdateDescription 更新描述，nil 表示清空
func (r *Repository) UpdateDescription(ctx context.Context, id uint, description *string) (bool, error) {
	result := r.Conn(ctx).Model(&models.Photo{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"description":       description,
			"description_lower": models.LowerDescription(description),
		})
	return result.RowsAffected > 0, result.Error
}

// SetQRURLIfEmpty 仅当 qr_url 为空时写入，返回是否写入成功
func (r *Repository) SetQRURLIfEmpty(ctx context.Context, id uint, qrURL string) (bool, error) {
	result := r.Conn(ctx).Model(&models.Photo{}).
		Where("id = ? AND qr_url IS NULL", id).
		Update("qr_url", qrURL)
	return result.RowsAffected > 0, result.Error
}

// List 按条件列出照片，按创建时间排序
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]models.Photo, error) {
	query := r.Conn(ctx).Model(&models.Photo{})

	if opts.UserID != nil {
		query = query.Where("user_id = ?", *opts.UserID)
	}
	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		query = query.Where(`description_lower LIKE ? ESCAPE '\'`, "%"+base.EscapeLike(strings.ToLower(kw))+"%")
	}
	if opts.TagID != nil {
		query = query.Where("id IN (?)",
			r.Conn(ctx).Model(&models.PhotoTag{}).Select("photo_id").Where("tag_id = ?", *opts.TagID))
	}

	if opts.Ascending {
		query = query.Order("created_at asc").Order("id asc")
	} else {
		query = query.Order("created_at desc").Order("id desc")
	}

	if opts.Limit > 0 {
		if opts.Limit > MaxPageSize {
			opts.Limit = MaxPageSize
		}
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var photos []models.Photo
	if err := query.Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}
