package extract

import "strings"

// siteSelectors 按域名配置的正文选择器，域名本身或其子域名命中
var siteSelectors = map[string][]string{
	// Tech blogs / Eng
	"blog.cloudflare.com":       {".post-content", "article .post-content", "main article"},
	"netflixtechblog.com":       {".main-article", ".post-content", "main article", "article"},
	"dropbox.tech":              {".post__content", ".post-content", "article", "main article"},
	"shopify.engineering":       {".article__body", ".rte", "article", "main article"},
	"engineering.atspotify.com": {".post-content", ".article-body", "article", "main article"},
	"stripe.com":                {".article-body", ".content", "main article"},
	"airbnb.io":                 {".post-content", "article", "main article"},

	// Vendors
	"aws.amazon.com":      {".lb-content-wide article", ".blog-post", "main article"},
	"cloud.google.com":    {".devsite-article-body", "article", "main article"},
	"azure.microsoft.com": {".article__content", ".content", "main article"},

	// Media / Longform
	"smashingmagazine.com": {".article__content", ".c-gar article", "main article"},
	"css-tricks.com":       {".article-content", ".entry-content", "article", "main article"},
	"quantamagazine.org":   {"main article", ".c-article__body", ".post-content"},

	// Research
	"openai.com":      {".article-content", "main article", ".prose"},
	"deepmind.google": {".article-content", ".rich-text", "main article"},
	"anthropic.com":   {".article-content", "article", "main article"},
	"huggingface.co":  {".blog-post-content", ".post-content", "article", "main article"},

	"stackoverflow.blog": {".entry-content", "article .entry-content", "main article"},

	"markmanson.net": {".article-content", ".entry-content", "article", "main article"},
	"paulgraham.com": {"table", "article", "main article"},

	"substack.com": {".available-content .body.markup", ".available-content .body", "main article", "article"},
	"medium.com":   {"article .pw-post-body-paragraph, article section", "article", "main article"},
}

// defaultSelectors 没有站点配置时使用，同时也是通用候选列表
var defaultSelectors = []string{
	"main article",
	"article",
	".entry-content",
	".post-content",
	".article-content",
	".article-body",
	".post-body",
	".content",
	".section-content",
	".post .content",
	".single-post .content",
}

// SelectorsFor 先精确匹配再按子域名后缀匹配，未命中返回默认列表
func SelectorsFor(hostname string) []string {
	host := strings.ToLower(hostname)
	if sels, ok := siteSelectors[host]; ok {
		return sels
	}
	// 多个后缀同时命中时取最长的那个
	best := ""
	for domain := range siteSelectors {
		if strings.HasSuffix(host, "."+domain) && len(domain) > len(best) {
			best = domain
		}
	}
	if best != "" {
		return siteSelectors[best]
	}
	return defaultSelectors
}
