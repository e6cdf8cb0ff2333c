package extract

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"github.com/PuerkitoBio/goquery"
)

var substackPostLink = regexp.MustCompile(`^https?://[^/]+\.substack\.com/p/`)

func isSubstackHost(host string) bool {
	return strings.HasSuffix(host, "substack.com")
}

func isSubstackListing(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !isSubstackHost(strings.ToLower(u.Hostname())) {
		return false
	}
	return strings.HasPrefix(u.Path, "/browse") || strings.HasPrefix(u.Path, "/profile")
}

func (e *Extractor) extractSubstack(ctx context.Context, rawURL string) (*Result, error) {
	target := rawURL
	if resolved, ok := e.resolveSubstackPostURL(ctx, rawURL); ok {
		target = resolved
	}

	page, err := e.fetcher.Fetch(ctx, target)
	if err := pageError(page, err); err != nil {
		return nil, errors.Wrap(xerr.FETCH_SUBSTACK_FAILED, "fetch substack "+target, err)
	}

	res, err := e.fromPage(hostname(target), target, page.HTML)
	if err != nil {
		return nil, errors.Wrap(xerr.FETCH_SUBSTACK_FAILED, "parse substack "+target, err)
	}
	res.SourceUsed = SourceSubstack
	return res, nil
}

// resolveSubstackPostURL 仅处理 /browse 与 /profile 列表页
// 顺序：canonical -> og:url -> __NEXT_DATA__ -> 第一个 /p/ 文章链接
func (e *Extractor) resolveSubstackPostURL(ctx context.Context, rawURL string) (string, bool) {
	if !isSubstackListing(rawURL) {
		return "", false
	}
	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err := pageError(page, err); err != nil {
		logDiscard("substack_resolve", rawURL, err)
		return "", false
	}
	doc, err := NewDocument(page.HTML, page.FinalURL)
	if err != nil {
		return "", false
	}

	resolvers := []func(*goquery.Document) string{
		func(d *goquery.Document) string { return attr(d, `link[rel="canonical"]`, "href") },
		func(d *goquery.Document) string { return metaContent(d, `meta[property="og:url"]`) },
		nextDataPostURL,
		func(d *goquery.Document) string {
			var found string
			d.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				if href := a.AttrOr("href", ""); substackPostLink.MatchString(href) {
					found = href
					return false
				}
				return true
			})
			return found
		},
	}
	for _, resolve := range resolvers {
		if u := resolve(doc); u != "" {
			return u, true
		}
	}
	return "", false
}

func nextDataPostURL(doc *goquery.Document) string {
	raw := strings.TrimSpace(doc.Find("#__NEXT_DATA__").First().Text())
	if raw == "" {
		return ""
	}
	var data struct {
		Props struct {
			PageProps map[string]any `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return ""
	}
	pp := ldNode(data.Props.PageProps)
	if post, ok := pp["post"].(map[string]any); ok {
		if u := ldNode(post).str("url", "canonical_url", "canonicalURL"); u != "" {
			return u
		}
	}
	return pp.str("canonical_url", "canonicalURL", "url")
}
