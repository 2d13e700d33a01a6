package cmd

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// migrateCmd 按当前配置执行表结构迁移
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		container := app.NewContainer(config.Get())
		if err := container.InitDatabase(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer container.Close()

		if err := container.GetDatabaseFactory().AutoMigrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

// migrateCopyCmd 在两个数据库之间复制数据
var migrateCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy all data from one database to another",
	Long: `Copy all data from a source database to a target database (e.g., SQLite to PostgreSQL).

Examples:
  # Copy from SQLite to PostgreSQL
  photo-bed migrate copy --from-sqlite ./data/photos.db --to-postgres "host=localhost user=postgres password=secret dbname=photobed port=5432"

  # Replace rows that already exist in the target
  photo-bed migrate copy --from-sqlite ./data/photos.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if err := runCopy(fromSQLite, toPostgres, batchSize, onConflict); err != nil {
			log.Fatalf("Copy failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateCopyCmd)

	migrateCopyCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateCopyCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateCopyCmd.Flags().Int("batch-size", 100, "Batch size for data copy")
	migrateCopyCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite")
	_ = migrateCopyCmd.MarkFlagRequired("from-sqlite")
	_ = migrateCopyCmd.MarkFlagRequired("to-postgres")
}

func runCopy(fromSQLite, toPostgres string, batchSize int, onConflict string) error {
	if onConflict != "skip" && onConflict != "overwrite" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip or overwrite)", onConflict)
	}

	source, err := openDatabase(sqlite.Open(fromSQLite + "?_foreign_keys=on"))
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer closeDatabase(source)

	target, err := openDatabase(postgres.Open(toPostgres))
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer closeDatabase(target)

	log.WithFields(log.Fields{"source": fromSQLite, "conflict": onConflict}).Info("Copying database to PostgreSQL")
	if err := database.Migrate(database.NewGormProviderFromDB(target, "postgres")); err != nil {
		return err
	}

	copied, err := copyTables(context.Background(), source, target, batchSize, onConflict == "overwrite")
	if err != nil {
		return err
	}
	if err := resetSequences(target); err != nil {
		return err
	}

	for _, m := range models.All() {
		name := tableName(target, m)
		log.WithFields(log.Fields{"table": name, "rows": copied[name]}).Info("Table copied")
	}
	log.Info("Copy completed successfully")
	return nil
}

func openDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func parseSchema(db *gorm.DB, model interface{}) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	return stmt.Schema, nil
}

func tableName(db *gorm.DB, model interface{}) string {
	s, err := parseSchema(db, model)
	if err != nil {
		return fmt.Sprintf("%T", model)
	}
	return s.Table
}

// copyTables 按外键依赖顺序逐表分批复制，返回每张表写入的行数
func copyTables(ctx context.Context, source, target *gorm.DB, batchSize int, overwrite bool) (map[string]int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	conflict := clause.OnConflict{DoNothing: true}
	if overwrite {
		conflict = clause.OnConflict{UpdateAll: true}
	}

	copied := make(map[string]int64)
	for _, m := range models.All() {
		s, err := parseSchema(source, m)
		if err != nil {
			return copied, err
		}
		// 关联表是复合主键，统一按主键列排序后用 offset 分页
		order := strings.Join(s.PrimaryFieldDBNames, ", ")

		for offset := 0; ; offset += batchSize {
			rows := reflect.New(reflect.SliceOf(s.ModelType))
			err := source.WithContext(ctx).Model(m).Order(order).Limit(batchSize).Offset(offset).Find(rows.Interface()).Error
			if err != nil {
				return copied, fmt.Errorf("failed to read table %s: %w", s.Table, err)
			}
			n := rows.Elem().Len()
			if n == 0 {
				break
			}

			result := target.WithContext(ctx).Omit(clause.Associations).Clauses(conflict).Create(rows.Interface())
			if result.Error != nil {
				return copied, fmt.Errorf("failed to write table %s at offset %d: %w", s.Table, offset, result.Error)
			}
			copied[s.Table] += result.RowsAffected
			if n < batchSize {
				break
			}
		}
	}
	return copied, nil
}

// resetSequences 显式写入主键后 PostgreSQL 序列需要前移
func resetSequences(db *gorm.DB) error {
	for _, table := range []string{"users", "photos", "tags", "photo_urls"} {
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}
