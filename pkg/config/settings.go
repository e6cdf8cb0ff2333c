package config

import "time"

// StorageConfig 存储配置，driver 取值 postgres / mysql / mongo
type StorageConfig struct {
	Driver       string        `mapstructure:"driver" json:"driver"`
	DSN          string        `mapstructure:"dsn" json:"dsn"`
	LogLevel     string        `mapstructure:"logLevel" json:"logLevel"`
	MaxOpenConns int           `mapstructure:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns int           `mapstructure:"maxIdleConns" json:"maxIdleConns"`
	SlowQuery    time.Duration `mapstructure:"slowQuery" json:"slowQuery"`
	Mongo        MongoConfig   `mapstructure:"mongo" json:"mongo"`
}

type MongoConfig struct {
	URI         string `mapstructure:"uri" json:"uri"`
	Database    string `mapstructure:"database" json:"database"`
	MaxPoolSize uint64 `mapstructure:"maxPoolSize" json:"maxPoolSize"`
}

// RedisConfig Addr 为空表示不启用 redis
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" json:"addr"`
	Password string        `mapstructure:"password" json:"password"`
	DB       int           `mapstructure:"db" json:"db"`
	LockTTL  time.Duration `mapstructure:"lockTTL" json:"lockTTL"`
	CacheTTL time.Duration `mapstructure:"cacheTTL" json:"cacheTTL"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}
