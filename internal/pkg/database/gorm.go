package database

import (
	"fmt"
	log "log/slog"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	dialector = mysql.Open(cfg.DSN)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if cfg.AutoMigrate {
		if err = Migrate(db); err != nil {
			return nil, err
		}
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// Migrate 创建缓存相关的三张表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ProfileCache{}, &model.AudienceCache{}, &model.CacheUpdateLog{}); err != nil {
		return fmt.Errorf("failed to migrate profile cache tables: %w", err)
	}
	return nil
}
