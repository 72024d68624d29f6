package initial

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"VectorOps/internal/config"
	chatEntity "VectorOps/internal/modules/chat/domain/entity"
	marketEntity "VectorOps/internal/modules/market/domain/entity"
	userEntity "VectorOps/internal/modules/user/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormDB 按 databaseConfig.driver 打开 mysql 或 sqlite，并迁移业务表
func NewGormDB(conf *config.Config) (*gorm.DB, error) {
	if conf == nil {
		return nil, errors.New("nil config")
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dialector, err := dialectorFor(conf.DatabaseConfig)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.DatabaseConfig.Driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移，如果没有建表，会自动创建对应的表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userEntity.UserInfo{},
		&chatEntity.ChatMessage{},
		&marketEntity.Stock{},
		&marketEntity.StockPrice{},
	)
}

func dialectorFor(dc config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(dc.Driver)) {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dc.User, dc.Password, dc.Host, dc.Port, dc.DatabaseName)
		return mysql.Open(dsn), nil
	case "", "sqlite":
		path := strings.TrimSpace(dc.SQLitePath)
		if path == "" {
			path = "data/vectorops.db"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", dc.Driver)
	}
}
