package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/base"
	"gorm.io/gorm"
)

// ErrUserNotFound 用户不存在错误
var ErrUserNotFound = errors.New("user not found")

// MaxListLimit 用户列表单次最多返回条数
const MaxListLimit = 50

// Repository 账户仓库
type Repository struct {
	base.Repository[models.User]
}

// NewRepository 创建新的账户仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: base.NewRepository[models.User](db)}
}

// EnsureAdminUser 没有任何管理员时创建一个默认管理员
func (r *Repository) EnsureAdminUser(ctx context.Context, username, email string) (*models.User, bool, error) {
	var count int64
	if err := r.Conn(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return nil, false, fmt.Errorf("failed to check admin user existence: %w", err)
	}
	if count > 0 {
		return nil, false, nil
	}

	user := &models.User{Username: username, Email: email, Role: models.RoleAdmin}
	if err := r.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create default admin user: %w", err)
	}
	return user, true, nil
}

// GetUserByID 通过ID获取用户
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByUsername 通过用户名获取用户
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.FirstByCondition(ctx, "username = ?", username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers 分页列出用户，mask 非空时按用户名或邮箱模糊匹配
func (r *Repository) ListUsers(ctx context.Context, limit, offset int, mask string) ([]models.User, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := r.Conn(ctx).Model(&models.User{})
	if mask != "" {
		pattern := "%" + base.EscapeLike(mask) + "%"
		query = query.Where(`username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var users []models.User
	err := query.Order("id asc").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

// SetBanned 设置封禁状态
func (r *Repository) SetBanned(ctx context.Context, id uint, banned bool) error {
	result := r.Conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_banned", banned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRole 设置角色
func (r *Repository) SetRole(ctx context.Context, id uint, role models.Role) error {
	result := r.Conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
