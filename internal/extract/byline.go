package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// bylineSelectors 常见平台的作者链接写法，按顺序尝试
var bylineSelectors = []string{
	// Medium
	`a[rel="author"]`,
	`a[href^="/@"]`,
	`a[href*="medium.com/@"]`,
	".pw-author",
	".p-author",
	".byline a[rel='author']",
	".byline .author",
	".postMetaInline a",
	"header .p-author",
	"header a[rel='author']",
	// mirrors
	".article-meta a[rel='author']",
	".post-meta a[rel='author']",
	".post-meta .author",
	// news / blogs
	".article__meta a[rel='author']",
	".article__header a[rel='author']",
	".c-article__byline a[rel='author']",
	".author__name",
}

var metaDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="pubdate"]`,
	`meta[name="date"]`,
}

var timeSelectors = []string{
	"time[datetime]",
	".article__meta time[datetime]",
	".article__header time[datetime]",
	".c-article__byline time[datetime]",
	"article time[datetime]",
}

var (
	absoluteURL = regexp.MustCompile(`(?i)^https?://`)
	separators  = regexp.MustCompile(`[-_]+`)
)

// ResolveAuthorDate 结构化数据 -> meta -> 作者 URL 还原 -> byline -> time 元素
// host 仅作参考，逻辑不按域名区分，镜像站点同样适用
func ResolveAuthorDate(host string, doc *goquery.Document) (string, *time.Time) {
	author, published := parseJSONLD(doc)

	if author == "" {
		author = metaAuthor(doc)
	}
	if published == nil {
		published = metaDate(doc)
	}

	if absoluteURL.MatchString(author) {
		author = authorFromURL(doc, author)
	}

	if author == "" {
		author = bylineAuthor(doc)
	}
	if published == nil {
		published = selectorDate(doc)
	}
	return author, published
}

func metaAuthor(doc *goquery.Document) string {
	if a := metaContent(doc, `meta[name="author"]`); a != "" {
		return a
	}
	return metaContent(doc, `meta[property="article:author"]`)
}

func metaDate(doc *goquery.Document) *time.Time {
	for _, sel := range metaDateSelectors {
		if t := ParseDate(metaContent(doc, sel)); t != nil {
			return t
		}
	}
	return ParseDate(attr(doc, "time", "datetime"))
}

// authorFromURL 优先使用指向该地址的链接文字，否则由路径最后一段生成人名
func authorFromURL(doc *goquery.Document, href string) string {
	link := doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.AttrOr("href", "") == href
	}).First()
	if text := collapse(link.Text()); text != "" {
		return text
	}
	return humanize(doc.Url, href)
}

func bylineAuthor(doc *goquery.Document) string {
	for _, sel := range bylineSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}

		var names []string
		nodes.Each(func(_ int, n *goquery.Selection) {
			names = append(names, collapse(n.Text()))
		})
		if joined := joinUnique(names); joined != "" {
			return joined
		}

		// 链接文字为空时退回 href
		var fromHref []string
		nodes.Each(func(_ int, n *goquery.Selection) {
			if goquery.NodeName(n) != "a" {
				return
			}
			if href, ok := n.Attr("href"); ok {
				fromHref = append(fromHref, humanize(doc.Url, href))
			}
		})
		if joined := joinUnique(fromHref); joined != "" {
			return joined
		}
	}
	return ""
}

func selectorDate(doc *goquery.Document) *time.Time {
	for _, sel := range timeSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		raw := node.AttrOr("datetime", "")
		if raw == "" {
			raw = node.AttrOr("content", "")
		}
		if raw == "" {
			raw = node.Text()
		}
		if t := ParseDate(raw); t != nil {
			return t
		}
	}
	return nil
}

// humanize ".../yegor-gilyov/" -> "Yegor Gilyov"
func humanize(base *url.URL, href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	var last string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			last = seg
		}
	}
	last = strings.TrimPrefix(last, "@")
	last = separators.ReplaceAllString(last, " ")

	words := strings.Fields(last)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func joinUnique(values []string) string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return strings.Join(out, ", ")
}
