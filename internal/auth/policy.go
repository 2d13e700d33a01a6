package auth

import (
	"errors"

	"github.com/anoixa/photo-bed/database/models"
)

// ErrForbidden 无权执行该操作
var ErrForbidden = errors.New("forbidden")

// Caller 调用者身份，由认证层提供
type Caller struct {
	ID       uint
	Username string
	Role     models.Role
}

// IsAdmin 是否为管理员
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CanMutatePhoto 照片的所有者或管理员可以修改照片
func CanMutatePhoto(caller Caller, ownerID uint) bool {
	return caller.ID == ownerID || caller.IsAdmin()
}

// AuthorizePhotoMutation 同 CanMutatePhoto，失败返回 ErrForbidden
func AuthorizePhotoMutation(caller Caller, ownerID uint) error {
	if !CanMutatePhoto(caller, ownerID) {
		return ErrForbidden
	}
	return nil
}

// CanManageUsers 管理员与版主可以管理用户
func CanManageUsers(caller Caller) bool {
	return caller.Role == models.RoleAdmin || caller.Role == models.RoleModerator
}

// AuthorizeUserManagement 管理用户，不允许对自己操作
func AuthorizeUserManagement(caller Caller, targetID uint) error {
	if !CanManageUsers(caller) || caller.ID == targetID {
		return ErrForbidden
	}
	return nil
}
