// Package dbtest 为各包测试提供基于临时文件的 SQLite 数据库
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 创建已迁移的测试数据库，测试结束时自动关闭
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	// _txlock=immediate 让写事务在 BEGIN 时取锁，并发测试依赖 busy_timeout 排队
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewProvider 返回包装测试数据库的 database.Provider
func NewProvider(t testing.TB) database.Provider {
	return database.NewGormProviderFromDB(NewDB(t), "sqlite")
}

// SeedUser 写入一个测试用户
func SeedUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}
