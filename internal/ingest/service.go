package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/internal/ai"
	"github.com/iceymoss/mdrdr/internal/extract"
	"github.com/iceymoss/mdrdr/internal/media"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/logger"
	"github.com/iceymoss/mdrdr/pkg/transaction"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Decision string

const (
	DecisionCached  Decision = "cached"
	DecisionCreated Decision = "created"
	DecisionUpdated Decision = "updated"
)

// Outcome 一次入库的结果
type Outcome struct {
	Decision Decision         `json:"status"`
	Article  *objects.Article `json:"article"`
}

type Service struct {
	store      Store
	extractor  Extractor
	media      MediaFetcher
	summarizer Summarizer
	embedder   Embedder
	keywords   KeywordExtractor
	tx         Transactor
	locker     Locker
	now        func() time.Time

	group singleflight.Group
}

type Option func(*Service)

func WithSummarizer(s Summarizer) Option { return func(svc *Service) { svc.summarizer = s } }
func WithEmbedder(e Embedder) Option     { return func(svc *Service) { svc.embedder = e } }

func WithKeywordExtractor(k KeywordExtractor) Option {
	return func(svc *Service) { svc.keywords = k }
}

// WithTransactor 媒体合并所用的事务执行器，默认不开启事务
func WithTransactor(t Transactor) Option { return func(svc *Service) { svc.tx = t } }

// WithLocker 跨进程互斥，未配置时只做进程内去重
func WithLocker(l Locker) Option { return func(svc *Service) { svc.locker = l } }

func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

func NewService(store Store, extractor Extractor, fetcher MediaFetcher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		extractor: extractor,
		media:     fetcher,
		keywords:  FrequencyKeywords{},
		tx:        transaction.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest 按分类结果走媒体或文章流程
func (s *Service) Ingest(ctx context.Context, rawURL string) (*Outcome, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New(xerr.REQUEST_PARAM_ERROR, "missing url")
	}
	if media.Classify(rawURL).IsMedia() {
		return s.IngestMedia(ctx, rawURL)
	}
	return s.IngestArticle(ctx, rawURL)
}

// IngestArticle 抽取 -> 哈希比对 -> 摘要/关键词/向量 -> 写入
// 哈希未变且已有摘要时直接返回 cached，不再调用外部服务
func (s *Service) IngestArticle(ctx context.Context, rawURL string) (*Outcome, error) {
	key := CanonicalArticleURL(rawURL)
	return s.exclusive(ctx, "article:"+key, func(ctx context.Context) (*Outcome, error) {
		return s.ingestArticle(ctx, rawURL, key)
	})
}

// articleFields 一次文章入库要写入的字段
type articleFields struct {
	url         string
	originalURL string
	result      *extract.Result
	hash        string
	summary     string
	keywords    []string
	embedding   []float32
	now         time.Time
}

func (s *Service) ingestArticle(ctx context.Context, rawURL, key string) (*Outcome, error) {
	existing, err := s.store.FindByURL(ctx, key)
	if err != nil {
		return nil, errors.Wrap(xerr.DB_ERROR, "find article", err)
	}

	res, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	hash := ContentHash(res.ContentHTML, res.Title, res.Author)
	if existing != nil && existing.ContentHash == hash && existing.SummaryHTML != "" {
		logger.Info("⏭️ [Ingest] content unchanged", zap.String("url", key), zap.Uint64("id", existing.ID))
		return &Outcome{Decision: DecisionCached, Article: existing}, nil
	}

	if s.summarizer == nil {
		return nil, errors.New(xerr.SUMMARIZE_FAILED, "summarizer is not configured")
	}
	summary, err := s.summarizer.Summarize(ctx, ai.SummaryInput{
		Title:   res.Title,
		Excerpt: res.Excerpt,
		HTML:    res.ContentHTML,
		URL:     key,
	})
	if err != nil {
		return nil, errors.Wrap(xerr.SUMMARIZE_FAILED, "summarize "+key, err)
	}

	plain := extract.PlainText(res.ContentHTML)
	fields := articleFields{
		url:         key,
		originalURL: rawURL,
		result:      res,
		hash:        hash,
		summary:     summary,
		keywords:    capKeywords(s.keywords.Extract(plain)),
		now:         s.now(),
	}
	if s.embedder != nil {
		fields.embedding = s.embedder.Embed(ctx, plain)
	}
	if fields.embedding == nil {
		logger.Warn("⚠️ [Ingest] embedding unavailable, storing without vector", zap.String("url", key))
	}

	rec, decision := existing, DecisionUpdated
	if rec == nil {
		rec, decision = &objects.Article{CreatedAt: fields.now}, DecisionCreated
	}
	applyArticle(rec, fields)

	if decision == DecisionCreated {
		err = s.store.Insert(ctx, rec)
	} else {
		err = s.store.Update(ctx, rec)
	}
	if err != nil {
		return nil, errors.Wrap(xerr.DB_ERROR, "save article", err)
	}
	if err := s.backfillExcerpt(ctx, rec); err != nil {
		return nil, err
	}

	logger.Info("✅ [Ingest] article saved", zap.String("url", key), zap.String("status", string(decision)),
		zap.String("source", rec.SourceUsed), zap.Uint64("id", rec.ID))
	return &Outcome{Decision: decision, Article: rec}, nil
}

// IngestMedia 获取元数据后在事务内查找并合并，不做摘要
func (s *Service) IngestMedia(ctx context.Context, rawURL string) (*Outcome, error) {
	cls := media.Classify(rawURL)
	if !cls.IsMedia() {
		return nil, errors.New(xerr.UNSUPPORTED_PROVIDER, "unsupported media url "+rawURL)
	}
	id := media.ProviderID(rawURL, cls.Provider)
	key := "media:" + string(cls.Provider) + ":" + id
	if id == "" {
		key = "media:" + media.CanonicalURL(rawURL, cls.Provider, id)
	}

	return s.exclusive(ctx, key, func(ctx context.Context) (*Outcome, error) {
		return s.ingestMedia(ctx, rawURL)
	})
}

func (s *Service) ingestMedia(ctx context.Context, rawURL string) (*Outcome, error) {
	meta, err := s.media.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	err = s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		existing, err := s.findMedia(ctx, meta)
		if err != nil {
			return err
		}

		now := s.now()
		if existing == nil {
			rec := newMediaRecord(meta, now)
			if err := s.store.Insert(ctx, rec); err != nil {
				return err
			}
			out = &Outcome{Decision: DecisionCreated, Article: rec}
		} else {
			mergeMedia(existing, meta, now)
			if err := s.store.Update(ctx, existing); err != nil {
				return err
			}
			out = &Outcome{Decision: DecisionUpdated, Article: existing}
		}
		return s.backfillExcerpt(ctx, out.Article)
	})
	if err != nil {
		if _, ok := errors.FromError(err); ok {
			return nil, err
		}
		return nil, errors.Wrap(xerr.DB_ERROR, "save media", err)
	}

	logger.Info("✅ [Ingest] media saved", zap.String("provider", string(meta.Provider)),
		zap.String("provider_id", meta.ProviderID), zap.String("status", string(out.Decision)))
	return out, nil
}

// findMedia 先按 (provider, provider_id)，再按规范地址或原始地址
func (s *Service) findMedia(ctx context.Context, meta *media.Metadata) (*objects.Article, error) {
	if meta.ProviderID != "" {
		rec, err := s.store.FindByProviderIdentity(ctx, string(meta.Provider), meta.ProviderID)
		if err != nil || rec != nil {
			return rec, err
		}
	}

	var urls []string
	for _, u := range []string{meta.CanonicalURL, meta.OriginalURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}
	return s.store.FindByAnyURL(ctx, urls...)
}

// backfillExcerpt 写入后摘录仍为空时用标题补齐
func (s *Service) backfillExcerpt(ctx context.Context, rec *objects.Article) error {
	if rec.Excerpt != "" || rec.Title == "" {
		return nil
	}
	rec.Excerpt = rec.Title
	if err := s.store.Update(ctx, rec); err != nil {
		return errors.Wrap(xerr.DB_ERROR, "backfill excerpt", err)
	}
	return nil
}

// exclusive 进程内同一 key 只跑一次，配置了 Locker 时再加跨进程锁
func (s *Service) exclusive(ctx context.Context, key string, fn func(ctx context.Context) (*Outcome, error)) (*Outcome, error) {
	v, err, shared := s.group.Do(key, func() (any, error) {
		if s.locker != nil {
			release, ok, err := s.locker.Acquire(ctx, key)
			switch {
			case err != nil:
				// 锁服务不可用时退化为仅进程内去重
				logger.Warn("ingest lock unavailable", zap.String("key", key), zap.Error(err))
			case !ok:
				return nil, errors.New(xerr.INGEST_IN_PROGRESS, key)
			default:
				defer release()
			}
		}
		return fn(ctx)
	})
	if shared {
		logger.Debug("ingest result shared", zap.String("key", key))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}
