package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/internal/fetch"
	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/logger"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"go.uber.org/zap"
)

type SourceUsed string

const (
	SourceOrigin         SourceUsed = "origin"
	SourceMediumMirror   SourceUsed = "medium+mirror"
	SourceSubstack       SourceUsed = "substack"
	SourceMediumFallback SourceUsed = "medium_fallback"
)

const DefaultMirrorBase = "https://freedium.cfd/"

// Result 单次抽取结果，ContentHTML 总是完整的 HTML 文档
type Result struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	PublishedAt *time.Time `json:"publishedAt"`
	Excerpt     string     `json:"excerpt"`
	ContentHTML string     `json:"contentHtml"`
	SourceUsed  SourceUsed `json:"sourceUsed"`
	FinalURL    string     `json:"finalUrl,omitempty"`
}

// Fetcher HTML 抓取接口，由 fetch.Retriever 实现
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

type Extractor struct {
	fetcher    Fetcher
	mirrorBase string
}

type Option func(*Extractor)

// WithMirrorBase 设置 Medium 阅读镜像前缀，镜像地址 = 前缀 + 原文地址
func WithMirrorBase(base string) Option {
	return func(e *Extractor) {
		if base != "" {
			e.mirrorBase = base
		}
	}
}

func New(fetcher Fetcher, opts ...Option) *Extractor {
	e := &Extractor{fetcher: fetcher, mirrorBase: DefaultMirrorBase}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract 按域名分派：Medium 走镜像，Substack 先解析列表页，其余走通用抽取
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	host := hostname(rawURL)

	switch {
	case isMediumHost(host):
		return e.extractMedium(ctx, rawURL)
	case isSubstackHost(host):
		return e.extractSubstack(ctx, rawURL)
	default:
		return e.extractGeneric(ctx, rawURL)
	}
}

func (e *Extractor) extractGeneric(ctx context.Context, rawURL string) (*Result, error) {
	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err := pageError(page, err); err != nil {
		return nil, errors.Wrap(xerr.FETCH_ORIGIN_FAILED, "fetch origin "+rawURL, err)
	}
	res, err := e.fromPage(hostname(rawURL), page.FinalURL, page.HTML)
	if err != nil {
		return nil, errors.Wrap(xerr.FETCH_ORIGIN_FAILED, "parse origin "+rawURL, err)
	}
	res.SourceUsed = SourceOrigin
	return res, nil
}

// fromPage 标题、作者日期、正文的通用流水线
func (e *Extractor) fromPage(host, pageURL, rawHTML string) (*Result, error) {
	doc, err := NewDocument(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}
	title := ExtractTitle(host, doc)
	author, published := ResolveAuthorDate(host, doc)
	body := ExtractBody(host, pageURL, doc, title)

	return &Result{
		Title:       title,
		Author:      author,
		PublishedAt: published,
		Excerpt:     body.Excerpt,
		ContentHTML: body.ContentHTML,
		FinalURL:    pageURL,
	}, nil
}

// pageError 网络错误、空正文、status >= 400 统一视为抓取失败
func pageError(page *fetch.Page, err error) error {
	if err != nil {
		return err
	}
	if page == nil || !page.OK() {
		status := 0
		if page != nil {
			status = page.Status
		}
		return fmt.Errorf("unusable page, status %d", status)
	}
	return nil
}

func logDiscard(step, rawURL string, err error) {
	logger.Debug("ignored secondary fetch error", zap.String("step", step), zap.String("url", rawURL), zap.Error(err))
}
