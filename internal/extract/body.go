package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"go.uber.org/zap"
)

const (
	allowlistMinText = 80
	genericMinText   = 120
)

// Body 正文抽取结果
type Body struct {
	ContentHTML string
	Excerpt     string
}

// bodyStage 正文候选阶段，返回未清洗的内部 HTML
type bodyStage func(host string, doc *goquery.Document, base *url.URL) (string, bool)

var bodyStages = []bodyStage{
	allowlistStage,
	genericStage,
	readabilityStage,
	lastResortStage,
}

// ExtractBody 站点白名单 -> 通用选择器 -> readability -> <article>/<body>
// 命中的内容经过清洗后包装为完整文档。doc 不会被修改
func ExtractBody(host, baseURL string, doc *goquery.Document, title string) Body {
	base, _ := url.Parse(baseURL)

	var inner string
	for _, stage := range bodyStages {
		if h, ok := stage(host, doc, base); ok {
			inner = h
			break
		}
	}

	clean := SanitizeFragment(inner, base)
	return Body{
		ContentHTML: WrapDocument(title, clean),
		Excerpt:     excerpt(doc, clean),
	}
}

func allowlistStage(host string, doc *goquery.Document, _ *url.URL) (string, bool) {
	return pickBySelectors(doc, SelectorsFor(host), allowlistMinText)
}

func genericStage(_ string, doc *goquery.Document, _ *url.URL) (string, bool) {
	return pickBySelectors(doc, defaultSelectors, genericMinText)
}

func pickBySelectors(doc *goquery.Document, selectors []string, minText int) (string, bool) {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 || textLen(node) <= minText {
			continue
		}
		if h, err := node.Html(); err == nil {
			return h, true
		}
	}
	return "", false
}

// readabilityStage 在文档副本上运行，避免修改调用方的 doc
func readabilityStage(_ string, doc *goquery.Document, base *url.URL) (string, bool) {
	rendered, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", false
	}
	if base == nil {
		base = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(rendered), base)
	if err != nil {
		logger.Debug("readability failed", zap.String("url", base.String()), zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", false
	}
	return article.Content, true
}

// lastResortStage 总会产出内容，即使页面为空
func lastResortStage(_ string, doc *goquery.Document, _ *url.URL) (string, bool) {
	if h, err := doc.Find("article").First().Html(); err == nil && strings.TrimSpace(h) != "" {
		return h, true
	}
	h, _ := doc.Find("body").First().Html()
	return h, true
}

// excerpt meta description 优先，否则取正文第一段，合并空白并截断到 220 字符
func excerpt(doc *goquery.Document, cleanInner string) string {
	text := metaContent(doc, `meta[name="description"]`)
	if text == "" {
		if frag, err := goquery.NewDocumentFromReader(strings.NewReader(cleanInner)); err == nil {
			text = frag.Find("p").First().Text()
		}
	}
	return truncateRunes(collapse(text), excerptLimit)
}
