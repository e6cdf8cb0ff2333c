package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// ContentHash sha256(contentHtml + title + author)，摘要与发布时间不参与
func ContentHash(contentHTML, title, author string) string {
	h := sha256.New()
	h.Write([]byte(contentHTML))
	h.Write([]byte(title))
	h.Write([]byte(author))
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalArticleURL 文章存储键：强制 https，去掉查询串与锚点
func CanonicalArticleURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return raw
	}
	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
