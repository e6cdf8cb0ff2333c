package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/iceymoss/mdrdr/internal/ai"
	"github.com/iceymoss/mdrdr/internal/conf"
	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/internal/extract"
	"github.com/iceymoss/mdrdr/internal/fetch"
	"github.com/iceymoss/mdrdr/internal/ingest"
	"github.com/iceymoss/mdrdr/internal/media"
	"github.com/iceymoss/mdrdr/internal/repo"
	"github.com/iceymoss/mdrdr/internal/server"
	"github.com/iceymoss/mdrdr/pkg/db"
	"github.com/iceymoss/mdrdr/pkg/logger"
	"github.com/iceymoss/mdrdr/pkg/sensitive"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// articleStore 两种存储实现共同满足的能力
type articleStore interface {
	ingest.Store
	server.ArticleStore
	core.StaleArticles
	Migrate(ctx context.Context) error
}

type app struct {
	cfg       *conf.Config
	extractor *extract.Extractor
	media     *media.Fetcher

	// 以下字段在 openStorage 之后可用
	articles articleStore
	taskRuns *repo.TaskRunRepo
	redis    *redis.Client
	ingest   *ingest.Service
	closers  []func()
}

// newApp 只构建不依赖存储的组件，extract / media 命令用不到数据库
func newApp() (*app, error) {
	cfg, err := conf.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	retriever := fetch.New(fetch.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		Timeout:        cfg.Fetch.Timeout,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		BlockPrivate:   cfg.Fetch.BlockPrivate,
	}, nil)

	var extractOpts []extract.Option
	if cfg.Fetch.MirrorBase != "" {
		extractOpts = append(extractOpts, extract.WithMirrorBase(cfg.Fetch.MirrorBase))
	}

	return &app{
		cfg:       cfg,
		extractor: extract.New(retriever, extractOpts...),
		media:     media.NewFetcher(media.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.OEmbedTimeout})),
	}, nil
}

// openStorage 连接存储并迁移表结构，然后组装入库服务
func (a *app) openStorage(ctx context.Context) error {
	opts := []ingest.Option{
		ingest.WithSummarizer(ai.NewSummarizer(a.cfg.AI)),
		ingest.WithEmbedder(ai.NewEmbedder(a.cfg.AI)),
	}
	if len(a.cfg.Keyword.Blocked) > 0 || a.cfg.Keyword.DictFile != "" {
		blocked, err := sensitive.NewWord(a.cfg.Keyword.Blocked, a.cfg.Keyword.DictFile)
		if err != nil {
			return fmt.Errorf("load keyword blocklist: %w", err)
		}
		opts = append(opts, ingest.WithKeywordExtractor(ingest.FrequencyKeywords{Blocked: blocked}))
	}

	switch strings.ToLower(a.cfg.Storage.Driver) {
	case db.DriverMongo:
		client, err := db.GetMongoConn(ctx, a.cfg.Storage.Mongo)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		a.articles = repo.NewMongoArticleRepo(client.Database(a.cfg.Storage.Mongo.Database))
	default:
		gdb, err := db.GetGormConn(a.cfg.Storage)
		if err != nil {
			return err
		}
		articles := repo.NewArticleRepo(gdb)
		a.articles = articles
		a.taskRuns = repo.NewTaskRunRepo(gdb)
		opts = append(opts, ingest.WithTransactor(articles.Transactor()))
		if err := a.taskRuns.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate task runs: %w", err)
		}
	}
	if err := a.articles.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate articles: %w", err)
	}

	if rdb := db.GetRedisConn(a.cfg.Redis); rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("⚠️ [Redis] Unavailable, running without lock and cache", zap.Error(err))
		} else {
			a.redis = rdb
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			opts = append(opts, ingest.WithLocker(ingest.NewRedisLocker(rdb, a.cfg.Redis.LockTTL)))
		}
	}

	a.ingest = ingest.NewService(a.articles, a.extractor, a.media, opts...)
	logger.Info("✅ [Storage] Ready", zap.String("driver", a.cfg.Storage.Driver), zap.Bool("redis", a.redis != nil))
	return nil
}

func (a *app) env() *core.Env {
	return &core.Env{Ingester: a.ingest, Articles: a.articles}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
