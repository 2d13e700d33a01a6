package photos

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/base"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// URLRepository 派生资源仓库
type URLRepository struct {
	base.Repository[models.PhotoURL]
}

// NewURLRepository 创建派生资源仓库
func NewURLRepository(db *gorm.DB) *URLRepository {
	return &URLRepository{Repository: base.NewRepository[models.PhotoURL](db)}
}

// WithTx 返回绑定到事务的仓库
func (r *URLRepository) WithTx(tx *gorm.DB) *URLRepository {
	return NewURLRepository(tx)
}

// GetByFileURL 通过文件地址查找
func (r *URLRepository) GetByFileURL(ctx context.Context, fileURL string) (*models.PhotoURL, error) {
	return r.FirstByCondition(ctx, "file_url = ?", fileURL)
}

// ListByPhotoID 列出照片的全部派生资源
func (r *URLRepository) ListByPhotoID(ctx context.Context, photoID uint) ([]models.PhotoURL, error) {
	return r.FindByCondition(ctx, "photo_id = ?", photoID)
}

// FirstOrCreate 按 file_url 获取或创建派生记录，返回记录与是否新建
// file_url 唯一约束兜底并发，冲突时重新读取一次
func (r *URLRepository) FirstOrCreate(ctx context.Context, photoID uint, fileURL string) (*models.PhotoURL, bool, error) {
	existing, err := r.GetByFileURL(ctx, fileURL)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	record := &models.PhotoURL{PhotoID: photoID, FileURL: fileURL}
	result := r.Conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_url"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("failed to create photo url: %w", result.Error)
	}
	if result.Error == nil && result.RowsAffected > 0 && record.ID != 0 {
		return record, true, nil
	}

	existing, err = r.GetByFileURL(ctx, fileURL)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("photo url %q vanished after conflict", fileURL)
	}
	return existing, false, nil
}

// SetQRURLIfEmpty 仅当 qr_url 为空时写入
func (r *URLRepository) SetQRURLIfEmpty(ctx context.Context, id uint, qrURL string) (bool, error) {
	result := r.Conn(ctx).Model(&models.PhotoURL{}).
		Where("id = ? AND qr_url IS NULL", id).
		Update("qr_url", qrURL)
	return result.RowsAffected > 0, result.Error
}

// DeleteByPhotoID 删除照片的全部派生记录
func (r *URLRepository) DeleteByPhotoID(ctx context.Context, photoID uint) (int64, error) {
	result := r.Conn(ctx).Where("photo_id = ?", photoID).Delete(&models.PhotoURL{})
	return result.RowsAffected, result.Error
}
