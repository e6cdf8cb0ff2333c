package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const excerptLimit = 220

var whitespace = regexp.MustCompile(`\s+`)

// NewDocument 解析 HTML 并记录页面地址，用于相对链接解析
func NewDocument(rawHTML, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func metaContent(doc *goquery.Document, selector string) string {
	return attr(doc, selector, "content")
}

func textLen(s *goquery.Selection) int {
	return utf8.RuneCountInString(strings.TrimSpace(s.Text()))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// truncateRunes 按字符截断，避免切断多字节字符
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// PlainText 提取 HTML 的纯文本，用于关键词与向量。相邻文本节点之间以空格分隔
func PlainText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, title").Remove()

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return collapse(b.String())
}
