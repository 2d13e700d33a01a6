// Package users 管理员与版主使用的用户管理
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/accounts"
	"github.com/anoixa/photo-bed/internal/auth"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = accounts.ErrUserNotFound
	// ErrInvalidRole 角色取值不合法
	ErrInvalidRole = errors.New("invalid role")
)

// ListQuery 用户列表参数
type ListQuery struct {
	Limit  int
	Offset int
	Mask   string
}

// Service 用户管理服务
type Service struct {
	repo *accounts.Repository
}

// NewService 创建用户管理服务
func NewService(db *gorm.DB) *Service {
	return &Service{repo: accounts.NewRepository(db)}
}

// List 列出用户
func (s *Service) List(ctx context.Context, caller auth.Caller, q ListQuery) ([]models.User, error) {
	if !auth.CanManageUsers(caller) {
		return nil, auth.ErrForbidden
	}
	list, err := s.repo.ListUsers(ctx, q.Limit, q.Offset, q.Mask)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// Get 获取单个用户
func (s *Service) Get(ctx context.Context, caller auth.Caller, id uint) (*models.User, error) {
	if !auth.CanManageUsers(caller) {
		return nil, auth.ErrForbidden
	}
	return s.repo.GetUserByID(ctx, id)
}

// loadTarget 读取被操作的用户，版主不能操作管理员
func (s *Service) loadTarget(ctx context.Context, caller auth.Caller, id uint) (*models.User, error) {
	if err := auth.AuthorizeUserManagement(caller, id); err != nil {
		return nil, err
	}
	target, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleAdmin && !caller.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	return target, nil
}

// ToggleBan 切换封禁状态
func (s *Service) ToggleBan(ctx context.Context, caller auth.Caller, id uint) (*models.User, error) {
	target, err := s.loadTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetBanned(ctx, id, !target.IsBanned); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": id, "banned": !target.IsBanned, "by": caller.ID}).Info("User ban state changed")
	return s.repo.GetUserByID(ctx, id)
}

// SetRole 设置角色，只有管理员可以授予管理员角色
func (s *Service) SetRole(ctx context.Context, caller auth.Caller, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if _, err := s.loadTarget(ctx, caller, id); err != nil {
		return nil, err
	}
	if role == models.RoleAdmin && !caller.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": id, "role": role, "by": caller.ID}).Info("User role changed")
	return s.repo.GetUserByID(ctx, id)
}
