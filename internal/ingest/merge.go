package ingest

import (
	"time"

	"github.com/iceymoss/mdrdr/internal/media"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// keepOr 新值非空才覆盖
func keepOr(current *string, next string) *string {
	if next != "" {
		return &next
	}
	return current
}

func keepOrInt(current, next *int) *int {
	if next != nil {
		return next
	}
	return current
}

func storageURL(meta *media.Metadata) string {
	if meta.CanonicalURL != "" {
		return meta.CanonicalURL
	}
	return meta.OriginalURL
}

func newMediaRecord(meta *media.Metadata, now time.Time) *objects.Article {
	extra := make(map[string]any, len(meta.Extra))
	for k, v := range meta.Extra {
		extra[k] = v
	}
	return &objects.Article{
		Kind:         objects.KindMedia,
		URL:          storageURL(meta),
		OriginalURL:  meta.OriginalURL,
		Title:        meta.Title,
		Author:       meta.Author,
		Provider:     strPtr(string(meta.Provider)),
		ProviderID:   strPtr(meta.ProviderID),
		ContentType:  strPtr(string(meta.ContentType)),
		EmbedHTML:    strPtr(meta.EmbedHTML),
		ThumbnailURL: strPtr(meta.ThumbnailURL),
		MediaWidth:   meta.MediaWidth,
		MediaHeight:  meta.MediaHeight,
		Extra:        extra,
		Keywords:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// mergeMedia 把新元数据合并进已有记录，已有的非空字段不会被空值覆盖
// extra 做浅合并，新键覆盖旧键
func mergeMedia(rec *objects.Article, meta *media.Metadata, now time.Time) {
	rec.Kind = objects.KindMedia
	if u := storageURL(meta); u != "" {
		rec.URL = u
	}
	if meta.OriginalURL != "" {
		rec.OriginalURL = meta.OriginalURL
	}
	if meta.Title != "" {
		rec.Title = meta.Title
	}
	if meta.Author != "" {
		rec.Author = meta.Author
	}

	rec.Provider = keepOr(rec.Provider, string(meta.Provider))
	rec.ProviderID = keepOr(rec.ProviderID, meta.ProviderID)
	rec.ContentType = keepOr(rec.ContentType, string(meta.ContentType))
	rec.EmbedHTML = keepOr(rec.EmbedHTML, meta.EmbedHTML)
	rec.ThumbnailURL = keepOr(rec.ThumbnailURL, meta.ThumbnailURL)
	rec.MediaWidth = keepOrInt(rec.MediaWidth, meta.MediaWidth)
	rec.MediaHeight = keepOrInt(rec.MediaHeight, meta.MediaHeight)

	if len(meta.Extra) > 0 {
		merged := make(map[string]any, len(rec.Extra)+len(meta.Extra))
		for k, v := range rec.Extra {
			merged[k] = v
		}
		for k, v := range meta.Extra {
			merged[k] = v
		}
		rec.Extra = merged
	}

	rec.UpdatedAt = now
}

// applyArticle 用新的抽取结果覆盖文章字段。新向量为空时保留旧向量
func applyArticle(rec *objects.Article, res articleFields) {
	rec.Kind = objects.KindArticle
	rec.URL = res.url
	rec.OriginalURL = res.originalURL
	rec.Title = res.result.Title
	rec.Author = res.result.Author
	rec.PublishedAt = res.result.PublishedAt
	rec.Excerpt = res.result.Excerpt
	rec.ContentHTML = res.result.ContentHTML
	rec.ContentHash = res.hash
	rec.SummaryHTML = res.summary
	rec.SourceUsed = string(res.result.SourceUsed)
	rec.Keywords = res.keywords
	if res.embedding != nil {
		rec.Embedding = res.embedding
	}
	rec.UpdatedAt = res.now
}
