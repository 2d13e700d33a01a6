// Package base 提供通用的 Repository 基类
package base

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository 通用仓库基类
type Repository[T any] struct {
	db *gorm.DB
}

// NewRepository 创建新的通用仓库
func NewRepository[T any](db *gorm.DB) Repository[T] {
	return Repository[T]{db: db}
}

// DB 返回底层数据库连接
func (r Repository[T]) DB() *gorm.DB {
	return r.db
}

// Conn 返回带上下文的连接
func (r Repository[T]) Conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Create 创建记录
func (r Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.Conn(ctx).Create(entity).Error
}

// GetByID 通过 ID 获取记录，不存在时返回 nil, nil
func (r Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := r.Conn(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// FirstByCondition 根据条件查询第一条记录，不存在时返回 nil, nil
func (r Repository[T]) FirstByCondition(ctx context.Context, condition string, args ...interface{}) (*T, error) {
	var entity T
	err := r.Conn(ctx).Where(condition, args...).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// FindByCondition 根据条件查询
func (r Repository[T]) FindByCondition(ctx context.Context, condition string, args ...interface{}) ([]T, error) {
	var entities []T
	err := r.Conn(ctx).Where(condition, args...).Order("id asc").Find(&entities).Error
	return entities, err
}

// DeleteByID 删除记录，返回受影响行数
func (r Repository[T]) DeleteByID(ctx context.Context, id uint) (int64, error) {
	var entity T
	result := r.Conn(ctx).Delete(&entity, id)
	return result.RowsAffected, result.Error
}

// Exists 检查记录是否存在
func (r Repository[T]) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Count 获取记录总数
func (r Repository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

// EscapeLike 转义 LIKE 模式中的通配符，配合 ESCAPE '\' 使用
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
