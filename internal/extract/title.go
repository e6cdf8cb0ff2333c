package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var substackTitleSelectors = []string{
	".available-content .title",
	".available-content h1",
	".available-content h2",
	"main article h1",
	"main article h2",
}

var headingTitleSelectors = []string{"article h1", "article h2", "h1", "h1 span"}

// ExtractTitle og:title -> twitter:title -> JSON-LD headline -> 正文标题 -> <title>
// 结果会去掉末尾的站点名后缀
func ExtractTitle(host string, doc *goquery.Document) string {
	candidates := []func() string{
		func() string { return metaContent(doc, `meta[property="og:title"]`) },
		func() string { return metaContent(doc, `meta[name="twitter:title"]`) },
		func() string { return ldHeadline(doc) },
		func() string {
			if !isSubstackHost(host) {
				return ""
			}
			return firstText(doc, substackTitleSelectors)
		},
		func() string { return firstText(doc, headingTitleSelectors) },
		func() string { return strings.TrimSpace(doc.Find("title").First().Text()) },
	}
	for _, c := range candidates {
		if t := c(); t != "" {
			return stripSiteSuffix(collapse(t), doc, host)
		}
	}
	return ""
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// stripSiteSuffix 去掉 "标题 — 站点" / "标题 | 站点" 这类后缀
func stripSiteSuffix(title string, doc *goquery.Document, host string) string {
	site := metaContent(doc, `meta[property="og:site_name"]`)
	if site == "" {
		site = strings.TrimPrefix(host, "www.")
	}
	if site == "" {
		return strings.TrimSpace(title)
	}
	rx, err := regexp.Compile(`(?i)\s*[—–\-|•:]\s*` + regexp.QuoteMeta(site) + `\s*$`)
	if err != nil {
		return strings.TrimSpace(title)
	}
	out := strings.TrimSpace(rx.ReplaceAllString(title, ""))
	if out == "" {
		return strings.TrimSpace(title)
	}
	return out
}
