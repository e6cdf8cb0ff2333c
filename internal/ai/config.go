package ai

import (
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultInputLimit     = 8000
	DefaultTemperature    = 0.3
)

// Config 摘要与向量共用的模型配置
type Config struct {
	APIKey         string        `mapstructure:"apiKey"`
	BaseURL        string        `mapstructure:"baseUrl"`
	ChatModel      string        `mapstructure:"chatModel"`
	EmbeddingModel string        `mapstructure:"embeddingModel"`
	Temperature    float64       `mapstructure:"temperature"`
	InputLimit     int           `mapstructure:"inputLimit"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	// 兼容 "openai:text-embedding-3-small" 写法
	if i := strings.IndexByte(c.EmbeddingModel, ':'); i >= 0 {
		c.EmbeddingModel = c.EmbeddingModel[i+1:]
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.InputLimit <= 0 {
		c.InputLimit = DefaultInputLimit
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// truncate 按字符截断
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
