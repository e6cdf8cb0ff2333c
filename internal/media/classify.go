package media

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

type Provider string

const (
	YouTube    Provider = "youtube"
	TikTok     Provider = "tiktok"
	Instagram  Provider = "instagram"
	X          Provider = "x"
	Spotify    Provider = "spotify"
	SoundCloud Provider = "soundcloud"
)

type ContentType string

const (
	Video  ContentType = "video"
	Music  ContentType = "music"
	Social ContentType = "social"
)

// Classification 零值表示按文章处理
type Classification struct {
	Provider    Provider    `json:"provider,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`
}

func (c Classification) IsMedia() bool {
	return c.Provider != ""
}

type hostRule struct {
	hosts       []string
	provider    Provider
	contentType ContentType
}

// 按顺序匹配，命中即返回。host 等于或是其子域名即算命中
var hostRules = []hostRule{
	{hosts: []string{"youtu.be", "youtube.com"}, provider: YouTube, contentType: Video},
	{hosts: []string{"tiktok.com"}, provider: TikTok, contentType: Video},
	{hosts: []string{"instagram.com"}, provider: Instagram, contentType: Social},
	{hosts: []string{"twitter.com", "x.com"}, provider: X, contentType: Social},
	{hosts: []string{"open.spotify.com"}, provider: Spotify, contentType: Music},
	{hosts: []string{"soundcloud.com"}, provider: SoundCloud, contentType: Music},
}

// Classify 根据域名判断是否为已知媒体平台，不做任何网络请求
func Classify(rawURL string) Classification {
	host := hostOf(rawURL)
	if host == "" {
		return Classification{}
	}
	for _, rule := range hostRules {
		for _, h := range rule.hosts {
			if matchHost(host, h) {
				return Classification{Provider: rule.provider, ContentType: rule.contentType}
			}
		}
	}
	return Classification{}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func matchHost(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// MaxProviderIDLen 与 articles.provider_id 列宽一致
const MaxProviderIDLen = 736

var (
	tiktokVideo    = regexp.MustCompile(`/video/(\d+)`)
	instagramShort = regexp.MustCompile(`/(p|reel|tv)/([^/]+)`)
	xStatus        = regexp.MustCompile(`/status/(\d+)`)
)

// ProviderID 提取平台内稳定 ID，无法识别时返回空串
func ProviderID(rawURL string, provider Provider) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")

	switch provider {
	case YouTube:
		if matchHost(strings.ToLower(u.Hostname()), "youtu.be") {
			return strings.TrimPrefix(path, "/")
		}
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		parts := splitPath(path)
		for i, p := range parts {
			if (p == "embed" || p == "shorts") && i+1 < len(parts) {
				return parts[i+1]
			}
		}
	case TikTok:
		if m := tiktokVideo.FindStringSubmatch(path); m != nil {
			return m[1]
		}
	case Instagram:
		if m := instagramShort.FindStringSubmatch(path); m != nil {
			return m[2]
		}
	case X:
		if m := xStatus.FindStringSubmatch(path); m != nil {
			return m[1]
		}
	case Spotify:
		if parts := splitPath(path); len(parts) > 1 {
			return parts[1]
		}
	case SoundCloud:
		// 没有短 ID，用 origin + path 代替，超出列宽时改用摘要
		id := u.Scheme + "://" + u.Host + path
		if len(id) > MaxProviderIDLen {
			sum := sha256.Sum256([]byte(id))
			return "sha256:" + hex.EncodeToString(sum[:])
		}
		return id
	}
	return ""
}

// CanonicalURL YouTube 有 ID 时统一为 watch?v=ID，其余平台保留原地址
func CanonicalURL(rawURL string, provider Provider, providerID string) string {
	if provider == YouTube && providerID != "" {
		return "https://www.youtube.com/watch?v=" + url.QueryEscape(providerID)
	}
	return rawURL
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
