package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/base"
	"github.com/anoixa/photo-bed/utils/validator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxNameLength 标签名最大字符数
const MaxNameLength = validator.MaxTagNameLength

var (
	// ErrEmptyTagName 规范化后名称为空，调用方视为"没有标签"
	ErrEmptyTagName = errors.New("tag name is empty")
	// ErrTagNameTooLong 名称超过 MaxNameLength
	ErrTagNameTooLong = errors.New("tag name too long")
)

// NormalizeName 规范化标签名：去首尾空白、合并内部空白、去掉前导 #、转小写
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimLeft(name, "#")
	name = strings.TrimSpace(name)
	return strings.ToLower(name)
}

// Repository 标签仓库，同时负责 photo_tags 关联表
type Repository struct {
	base.Repository[models.Tag]
}

// NewRepository 创建标签仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: base.NewRepository[models.Tag](db)}
}

// WithTx 返回绑定到事务的仓库
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// GetByName 按规范化后的名称精确查找，不存在返回 nil, nil
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}
	return r.FirstByCondition(ctx, "name = ?", normalized)
}

// GetOrCreate 返回名称对应的唯一标签，必要时创建
// 并发创建时唯一约束兜底，冲突后重新读取一次
func (r *Repository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, ErrEmptyTagName
	}
	if utf8.RuneCountInString(normalized) > MaxNameLength {
		return nil, fmt.Errorf("%w: %q", ErrTagNameTooLong, normalized)
	}

	tag, err := r.FirstByCondition(ctx, "name = ?", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tag %q: %w", normalized, err)
	}
	if tag != nil {
		return tag, nil
	}

	tag = &models.Tag{Name: normalized}
	result := r.Conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(tag)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create tag %q: %w", normalized, result.Error)
	}
	if result.Error == nil && result.RowsAffected > 0 && tag.ID != 0 {
		return tag, nil
	}

	// 另一个请求抢先插入
	existing, err := r.FirstByCondition(ctx, "name = ?", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch tag %q: %w", normalized, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("tag %q vanished after conflict", normalized)
	}
	return existing, nil
}

// Link 建立照片与标签的关联，已存在时不做任何事；返回是否新建
func (r *Repository) Link(ctx context.Context, photoID, tagID uint) (bool, error) {
	result := r.Conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PhotoTag{PhotoID: photoID, TagID: tagID})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Unlink 删除关联，返回是否确实删除了一行
func (r *Repository) Unlink(ctx context.Context, photoID, tagID uint) (bool, error) {
	result := r.Conn(ctx).Where("photo_id = ? AND tag_id = ?", photoID, tagID).Delete(&models.PhotoTag{})
	return result.RowsAffected > 0, result.Error
}

// UnlinkAll 删除照片的全部关联
func (r *Repository) UnlinkAll(ctx context.Context, photoID uint) error {
	return r.Conn(ctx).Where("photo_id = ?", photoID).Delete(&models.PhotoTag{}).Error
}

// ListByPhotoID 获取单张照片的标签
func (r *Repository) ListByPhotoID(ctx context.Context, photoID uint) ([]models.Tag, error) {
	byPhoto, err := r.ListByPhotoIDs(ctx, []uint{photoID})
	if err != nil {
		return nil, err
	}
	if tags, ok := byPhoto[photoID]; ok {
		return tags, nil
	}
	return []models.Tag{}, nil
}

// ListByPhotoIDs 批量获取多张照片的标签，按标签 ID 排序
func (r *Repository) ListByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint][]models.Tag, error) {
	result := make(map[uint][]models.Tag, len(photoIDs))
	if len(photoIDs) == 0 {
		return result, nil
	}

	type tagRow struct {
		PhotoID uint
		ID      uint
		Name    string
	}
	var rows []tagRow
	err := r.Conn(ctx).
		Table("photo_tags").
		Select("photo_tags.photo_id, tags.id, tags.name").
		Joins("JOIN tags ON tags.id = photo_tags.tag_id").
		Where("photo_tags.photo_id IN ?", photoIDs).
		Order("photo_tags.photo_id, tags.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags for photos: %w", err)
	}

	for _, row := range rows {
		result[row.PhotoID] = append(result[row.PhotoID], models.Tag{ID: row.ID, Name: row.Name})
	}
	return result, nil
}

// CountByPhotoID 统计照片已有的标签数
func (r *Repository) CountByPhotoID(ctx context.Context, photoID uint) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.PhotoTag{}).Where("photo_id = ?", photoID).Count(&count).Error
	return count, err
}

// orphanCondition 没有任何照片引用的标签
const orphanCondition = "NOT EXISTS (SELECT 1 FROM photo_tags WHERE photo_tags.tag_id = tags.id)"

// ListOrphans 列出未被任何照片引用的标签，仅供维护命令使用
func (r *Repository) ListOrphans(ctx context.Context) ([]models.Tag, error) {
	var list []models.Tag
	err := r.Conn(ctx).Where(orphanCondition).Order("id").Find(&list).Error
	return list, err
}

// DeleteOrphans 删除未被引用的标签，返回删除数量
func (r *Repository) DeleteOrphans(ctx context.Context) (int64, error) {
	result := r.Conn(ctx).Where(orphanCondition).Delete(&models.Tag{})
	return result.RowsAffected, result.Error
}
