package conf

import (
	"os"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/internal/ai"
	settings "github.com/iceymoss/mdrdr/pkg/config"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig           `mapstructure:"server"`
	Storage settings.StorageConfig `mapstructure:"storage"`
	Redis   settings.RedisConfig   `mapstructure:"redis"`
	Fetch   FetchConfig            `mapstructure:"fetch"`
	AI      ai.Config              `mapstructure:"ai"`
	Keyword KeywordConfig          `mapstructure:"keywords"`
	Jobs    []JobConfig            `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Mode gin 运行模式：release / debug / test
	Mode string `mapstructure:"mode"`
}

// FetchConfig 页面抓取相关配置
type FetchConfig struct {
	UserAgent      string        `mapstructure:"userAgent"`
	AcceptLanguage string        `mapstructure:"acceptLanguage"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes"`
	BlockPrivate   bool          `mapstructure:"blockPrivate"`
	MirrorBase     string        `mapstructure:"mirrorBase"`
	OEmbedTimeout  time.Duration `mapstructure:"oembedTimeout"`
}

// KeywordConfig 关键词屏蔽词，命中的词不会进入 keywords
type KeywordConfig struct {
	Blocked  []string `mapstructure:"blocked"`
	DictFile string   `mapstructure:"dictFile"`
}

type JobConfig struct {
	Name   string                 `mapstructure:"name"`
	Cron   string                 `mapstructure:"cron"`
	Enable bool                   `mapstructure:"enable"`
	Params map[string]interface{} `mapstructure:"params"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.logLevel", "warn")
	v.SetDefault("storage.maxOpenConns", 30)
	v.SetDefault("storage.maxIdleConns", 15)
	v.SetDefault("storage.slowQuery", "500ms")
	v.SetDefault("storage.mongo.database", "mdrdr")

	v.SetDefault("redis.lockTTL", "2m")
	v.SetDefault("redis.cacheTTL", "10m")

	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.maxBodyBytes", 8<<20)
	v.SetDefault("fetch.blockPrivate", true)
	v.SetDefault("fetch.mirrorBase", "https://freedium.cfd/")
	v.SetDefault("fetch.oembedTimeout", "10s")

	v.SetDefault("ai.baseUrl", ai.DefaultBaseURL)
	v.SetDefault("ai.chatModel", ai.DefaultChatModel)
	v.SetDefault("ai.embeddingModel", ai.DefaultEmbeddingModel)
	v.SetDefault("ai.temperature", ai.DefaultTemperature)
	v.SetDefault("ai.inputLimit", ai.DefaultInputLimit)
	v.SetDefault("ai.timeout", "60s")
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv() // 自动读取环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 允许环境变量替换 YAML 中的 ${VAR}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 显式展开环境变量
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
