package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var articleTypes = []string{"Article", "NewsArticle", "BlogPosting"}

type ldNode map[string]any

// ldNodes 收集所有 ld+json 块中的节点，数组展开，@graph 中的节点排在容器本身之前
func ldNodes(doc *goquery.Document) []ldNode {
	var pile []ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(txt), &data); err != nil {
			return
		}
		pile = append(pile, flattenLD(data)...)
	})
	return pile
}

func flattenLD(data any) []ldNode {
	var out []ldNode
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			out = append(out, flattenLD(item)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok {
					out = append(out, ldNode(m))
				}
			}
		}
		out = append(out, ldNode(v))
	}
	return out
}

func (n ldNode) isArticle() bool {
	t, ok := n["@type"]
	if !ok {
		t = n["type"]
	}
	switch v := t.(type) {
	case string:
		return containsString(articleTypes, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && containsString(articleTypes, s) {
				return true
			}
		}
	}
	return false
}

func (n ldNode) str(keys ...string) string {
	for _, k := range keys {
		if s, ok := n[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (n ldNode) has(keys ...string) bool {
	for _, k := range keys {
		if v, ok := n[k]; ok && v != nil && v != "" {
			return true
		}
	}
	return false
}

// ldAuthor 支持字符串、{name,url} 对象及其数组
func ldAuthor(v any) string {
	switch a := v.(type) {
	case string:
		return strings.TrimSpace(a)
	case map[string]any:
		return ldNode(a).str("name", "url")
	case []any:
		var names []string
		for _, item := range a {
			if name := ldAuthor(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

// parseJSONLD 优先取 Article 类节点，没有时退回任意带 author/datePublished/headline/name 的节点
func parseJSONLD(doc *goquery.Document) (string, *time.Time) {
	nodes := ldNodes(doc)
	for _, n := range nodes {
		if n.isArticle() {
			return ldAuthor(n["author"]), ParseDate(n.str("datePublished", "dateCreated", "uploadDate", "pubDate"))
		}
	}
	for _, n := range nodes {
		if n.has("author", "datePublished", "headline", "name") {
			return ldAuthor(n["author"]), ParseDate(n.str("datePublished", "dateCreated"))
		}
	}
	return "", nil
}

// ldHeadline Article 类节点的标题
func ldHeadline(doc *goquery.Document) string {
	for _, n := range ldNodes(doc) {
		if n.isArticle() {
			if hl := n.str("headline", "name", "title"); hl != "" {
				return hl
			}
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
