package db

import (
	"fmt"
	"strings"
	"sync"
	"time"

	conf "github.com/iceymoss/mdrdr/pkg/config"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

var gormConn = make(map[string]*gorm.DB)
var gormMutex sync.RWMutex

// GetGormConn 按 driver+dsn 缓存连接，同一配置只建一次连接池
func GetGormConn(cfg conf.StorageConfig) (*gorm.DB, error) {
	key := cfg.Driver + "|" + cfg.DSN

	gormMutex.RLock()
	conn, ok := gormConn[key]
	gormMutex.RUnlock()
	if ok {
		return conn, nil
	}

	gormMutex.Lock()
	defer gormMutex.Unlock()
	if conn, ok := gormConn[key]; ok {
		return conn, nil
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger.Logger, cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	pool, poolErr := dbConn.DB()
	if poolErr != nil {
		logger.Error("gorm pool unavailable", zap.Error(poolErr))
	} else {
		pool.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 30))
		pool.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 15))
	}

	if strings.EqualFold(cfg.LogLevel, "debug") {
		dbConn = dbConn.Debug()
	}
	gormConn[key] = dbConn
	return dbConn, nil
}

// Dialector 根据 driver 选择 gorm 方言
func Dialector(cfg conf.StorageConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "":
		return postgres.Open(cfg.DSN), nil
	case DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

func gormLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "info":
		return gormLogger.Info
	case "warn", "warning":
		return gormLogger.Warn
	case "silent":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func slowThreshold(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return 500 * time.Millisecond
}
