package extract

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// noiseSelectors 正文中需要整体移除的结构与站点杂项
var noiseSelectors = []string{
	"header",
	"footer",
	"nav",
	"aside",
	"[role='banner']",
	"[role='contentinfo']",
	"[role='complementary']",
	".comments",
	".comment",
	".related",
	".recommended",
	".newsletter",
	".subscribe",
	".subscription",
	".share",
	".social",
	".promo",
	".advert",
	".ad",
	".ads",
	".widget",
	".sidebar",
	".breadcrumbs",
	".cookie",
	".gdpr",
	".modal",
	"[data-component='comments']",
	"[data-test='comments']",

	// Substack
	"#discussion",
	"#comments-for-scroll",
	".post-ufi",
	".post-right-rail",
	".left-rail",
	".right-rail",
	".sidebar-NzGH2W",
	".sidebar-right-ktL8if",
	".sidebar-left-K3vrOP",
	".sidebar-RUDMha",
	".subscription-widget",
	".subscribe-widget",
	".paywall",
	".recommended-posts",
	".publisher-bar",
	".top-bar",
	".bottom-bar",
	".header-menu",
	".footer-newsletter",
	".video-wrapper-lforaE",
	".bottomControlsContainer-kx5Iet",
	".visibility-check",
}

var noiseHeadingWords = []string{"transcript", "discussion"}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("picture", "source", "time")
	p.AllowAttrs("srcset", "sizes").OnElements("img", "source")
	p.AllowAttrs("type", "media").OnElements("source")
	p.AllowAttrs("datetime").OnElements("time")
	return p
}

// StripNoise 原地移除噪音节点，root 本身不会被移除
func StripNoise(root *goquery.Selection) {
	for _, sel := range noiseSelectors {
		root.Find(sel).Remove()
	}

	root.Find("h3, h4").Each(func(_ int, h *goquery.Selection) {
		text := strings.ToLower(h.Text())
		for _, w := range noiseHeadingWords {
			if strings.Contains(text, w) {
				section := h.Closest("section, div")
				if section.Length() > 0 && !section.IsSelection(root) {
					section.Remove()
				}
				return
			}
		}
	})

	root.Find("script, style, noscript, iframe").Remove()
}

// Absolutize 把 href/src/srcset 改写为基于 base 的绝对地址
func Absolutize(root *goquery.Selection, base *url.URL) {
	if base == nil {
		return
	}
	resolve := func(ref string) (string, bool) {
		u, err := url.Parse(strings.TrimSpace(ref))
		if err != nil {
			return "", false
		}
		return base.ResolveReference(u).String(), true
	}

	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if abs, ok := resolve(a.AttrOr("href", "")); ok {
			a.SetAttr("href", abs)
		}
	})
	root.Find("img[src], source[src]").Each(func(_ int, img *goquery.Selection) {
		if abs, ok := resolve(img.AttrOr("src", "")); ok {
			img.SetAttr("src", abs)
		}
	})
	root.Find("img[srcset], source[srcset]").Each(func(_ int, el *goquery.Selection) {
		var fixed []string
		for _, part := range strings.Split(el.AttrOr("srcset", ""), ",") {
			fields := strings.Fields(part)
			if len(fields) == 0 {
				continue
			}
			if abs, ok := resolve(fields[0]); ok {
				fields[0] = abs
			}
			fixed = append(fixed, strings.Join(fields, " "))
		}
		if len(fixed) > 0 {
			el.SetAttr("srcset", strings.Join(fixed, ", "))
		}
	})
}

// SanitizeFragment 去噪 -> 绝对化链接 -> 白名单清洗，对自身输出幂等
func SanitizeFragment(fragment string, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(policy.Sanitize(fragment))
	}
	body := doc.Find("body")
	StripNoise(body)
	Absolutize(body, base)

	inner, err := body.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(inner))
}

// WrapDocument 包装为最小完整 HTML 文档
func WrapDocument(title, inner string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</title></head><body>`)
	b.WriteString(inner)
	b.WriteString(`</body></html>`)
	return b.String()
}
