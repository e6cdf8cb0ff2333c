package media

import (
	"fmt"
	"html"
	"net/url"
)

const youtubeAllow = "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"

// fallbackEmbed 没有 oEmbed html 时合成可嵌入片段，无法合成返回空串
func fallbackEmbed(provider Provider, originalURL, providerID, title string) string {
	switch provider {
	case Instagram:
		return fmt.Sprintf(`<blockquote class="instagram-media" data-instgrm-permalink="%s" data-instgrm-version="14"></blockquote>`+
			`<script async src="https://www.instagram.com/embed.js"></script>`, html.EscapeString(originalURL))
	case X:
		return fmt.Sprintf(`<blockquote class="twitter-tweet"><a href="%s"></a></blockquote>`+
			`<script async src="https://platform.twitter.com/widgets.js" charset="utf-8"></script>`, html.EscapeString(originalURL))
	case YouTube:
		if providerID == "" {
			return ""
		}
		if title == "" {
			title = "YouTube video"
		}
		return fmt.Sprintf(`<iframe src="https://www.youtube-nocookie.com/embed/%s" frameborder="0" allow="%s" allowfullscreen loading="lazy" title="%s"></iframe>`,
			url.PathEscape(providerID), youtubeAllow, html.EscapeString(title))
	}
	return ""
}
