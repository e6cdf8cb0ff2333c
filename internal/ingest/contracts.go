package ingest

import (
	"context"
	"database/sql"

	"github.com/iceymoss/mdrdr/internal/ai"
	"github.com/iceymoss/mdrdr/internal/extract"
	"github.com/iceymoss/mdrdr/internal/media"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
)

// Store 记录的持久化。查不到时返回 (nil, nil)
type Store interface {
	FindByURL(ctx context.Context, url string) (*objects.Article, error)
	FindByProviderIdentity(ctx context.Context, provider, providerID string) (*objects.Article, error)
	// FindByAnyURL 按 url 或 original_url 命中任一地址
	FindByAnyURL(ctx context.Context, urls ...string) (*objects.Article, error)
	Insert(ctx context.Context, a *objects.Article) error
	Update(ctx context.Context, a *objects.Article) error
}

type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*extract.Result, error)
}

type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*media.Metadata, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, in ai.SummaryInput) (string, error)
}

// Embedder 返回 nil 表示暂不可用，不是错误
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

type KeywordExtractor interface {
	Extract(text string) []string
}

type Transactor interface {
	Execute(ctx context.Context, opts *sql.TxOptions, operation func(ctx context.Context) error) error
}

// Locker 跨进程的入库互斥。ok 为 false 表示已有其他进程在处理
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}
