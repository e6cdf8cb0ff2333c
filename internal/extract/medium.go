package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/xerr"
)

var schemePrefix = regexp.MustCompile(`^https?://`)

func isMediumHost(host string) bool {
	return host == "medium.com" || strings.HasSuffix(host, ".medium.com")
}

// NormaliseMediumURL 强制 https 并去掉查询串
func NormaliseMediumURL(raw string) string {
	out := schemePrefix.ReplaceAllString(strings.TrimSpace(raw), "https://")
	if i := strings.IndexAny(out, "?#"); i >= 0 {
		out = out[:i]
	}
	return out
}

// MirrorURL 镜像地址 = 前缀 + 规范化后的原文地址
func MirrorURL(base, mediumURL string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + NormaliseMediumURL(mediumURL)
}

// extractMedium 正文来自镜像；作者日期先从原站补充，再从镜像 DOM 兜底
func (e *Extractor) extractMedium(ctx context.Context, rawURL string) (*Result, error) {
	origin := NormaliseMediumURL(rawURL)
	host := hostname(origin)

	source := SourceMediumMirror
	page, err := e.fetcher.Fetch(ctx, MirrorURL(e.mirrorBase, origin))
	mirrorErr := pageError(page, err)
	if mirrorErr != nil {
		// 镜像不可用时直接抓原站，可能只拿到付费墙前的片段
		page, err = e.fetcher.Fetch(ctx, origin)
		if pageError(page, err) != nil {
			return nil, errors.Wrap(xerr.MIRROR_FAILED, "mirror fetch "+origin, mirrorErr)
		}
		source = SourceMediumFallback
	}

	doc, err := NewDocument(page.HTML, origin)
	if err != nil {
		return nil, errors.Wrap(xerr.MIRROR_FAILED, "parse mirror "+origin, err)
	}
	title := ExtractTitle(host, doc)
	body := ExtractBody(host, origin, doc, title)

	var author string
	var published *time.Time
	if source == SourceMediumMirror {
		author, published = e.tryEnrichMetadata(ctx, origin)
	}
	if author == "" || published == nil {
		a, p := ResolveAuthorDate(host, doc)
		if author == "" {
			author = a
		}
		if published == nil {
			published = p
		}
	}

	return &Result{
		Title:       title,
		Author:      author,
		PublishedAt: published,
		Excerpt:     body.Excerpt,
		ContentHTML: body.ContentHTML,
		SourceUsed:  source,
		FinalURL:    page.FinalURL,
	}, nil
}

// tryEnrichMetadata 再抓一次原站，只读取结构化数据与 meta 中的作者和日期
// 失败不影响主流程，错误只记录日志
func (e *Extractor) tryEnrichMetadata(ctx context.Context, origin string) (string, *time.Time) {
	page, err := e.fetcher.Fetch(ctx, origin)
	if err := pageError(page, err); err != nil {
		logDiscard("medium_origin_metadata", origin, err)
		return "", nil
	}
	doc, err := NewDocument(page.HTML, origin)
	if err != nil {
		logDiscard("medium_origin_metadata", origin, err)
		return "", nil
	}

	author, published := parseJSONLD(doc)
	if author == "" {
		author = metaAuthor(doc)
	}
	if published == nil {
		published = ParseDate(metaContent(doc, `meta[property="article:published_time"]`))
	}
	if published == nil {
		published = ParseDate(attr(doc, "time[datetime]", "datetime"))
	}
	return author, published
}
