package ai

import (
	"context"
	"strings"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// embeddingClient openai.LLM 的向量接口子集
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

type Embedder struct {
	cfg    Config
	client embeddingClient
}

type EmbedderOption func(*Embedder)

func WithEmbeddingClient(c embeddingClient) EmbedderOption {
	return func(e *Embedder) { e.client = c }
}

func NewEmbedder(cfg Config, opts ...EmbedderOption) *Embedder {
	e := &Embedder{cfg: cfg.withDefaults()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed 失败时返回 nil，调用方据此保留旧向量或写入空值
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	client := e.client
	if client == nil {
		if e.cfg.APIKey == "" {
			logger.Warn("embedding skipped: api key is not set")
			return nil
		}
		llm, err := openai.New(
			openai.WithToken(e.cfg.APIKey),
			openai.WithBaseURL(e.cfg.BaseURL),
			openai.WithEmbeddingModel(e.cfg.EmbeddingModel),
		)
		if err != nil {
			logger.Warn("embedding client init failed", zap.Error(err))
			return nil
		}
		client = llm
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	vectors, err := client.CreateEmbedding(ctx, []string{truncate(text, e.cfg.InputLimit)})
	if err != nil {
		logger.Warn("embedding failed", zap.String("model", e.cfg.EmbeddingModel), zap.Error(err))
		return nil
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		logger.Warn("embedding response is empty", zap.String("model", e.cfg.EmbeddingModel))
		return nil
	}
	return vectors[0]
}
