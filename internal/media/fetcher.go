package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/logger"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"go.uber.org/zap"
)

// Metadata 媒体元数据，空字符串/nil 表示没有拿到
type Metadata struct {
	Provider     Provider       `json:"provider"`
	ProviderID   string         `json:"provider_id,omitempty"`
	ContentType  ContentType    `json:"content_type"`
	CanonicalURL string         `json:"canonical_url"`
	OriginalURL  string         `json:"original_url"`
	Title        string         `json:"title,omitempty"`
	Author       string         `json:"author,omitempty"`
	EmbedHTML    string         `json:"embed_html,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	MediaWidth   *int           `json:"media_width,omitempty"`
	MediaHeight  *int           `json:"media_height,omitempty"`
	Extra        map[string]any `json:"extra"`
}

// oEmbed 接口模板，%s 为 url 编码后的地址。Instagram 与 X 没有可用的公开接口
var defaultEndpoints = map[Provider]string{
	YouTube:    "https://www.youtube.com/oembed?url=%s&format=json",
	TikTok:     "https://www.tiktok.com/oembed?url=%s",
	Spotify:    "https://open.spotify.com/oembed?url=%s",
	SoundCloud: "https://soundcloud.com/oembed?format=json&url=%s",
}

type Fetcher struct {
	client    *http.Client
	endpoints map[Provider]string
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithEndpoint 覆盖某个平台的 oEmbed 模板，空模板表示禁用
func WithEndpoint(p Provider, tmpl string) Option {
	return func(f *Fetcher) { f.endpoints[p] = tmpl }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoints: make(map[Provider]string, len(defaultEndpoints)),
	}
	for p, tmpl := range defaultEndpoints {
		f.endpoints[p] = tmpl
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 分类 -> 解析 ID -> 规范化地址 -> oEmbed -> 兜底嵌入代码
// oEmbed 失败不影响结果，只有无法识别平台才返回错误
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	cls := Classify(rawURL)
	if !cls.IsMedia() {
		return nil, errors.New(xerr.UNSUPPORTED_PROVIDER, "unsupported provider: "+rawURL)
	}

	id := ProviderID(rawURL, cls.Provider)
	meta := &Metadata{
		Provider:     cls.Provider,
		ProviderID:   id,
		ContentType:  cls.ContentType,
		CanonicalURL: CanonicalURL(rawURL, cls.Provider, id),
		OriginalURL:  rawURL,
		Extra:        map[string]any{},
	}

	if oe, err := f.oEmbed(ctx, cls.Provider, meta.CanonicalURL); err != nil {
		logger.Debug("oembed unavailable", zap.String("url", rawURL), zap.Error(err))
	} else if oe != nil {
		meta.Title = strings.TrimSpace(oe.Title)
		meta.Author = strings.TrimSpace(oe.AuthorName)
		meta.ThumbnailURL = oe.ThumbnailURL
		meta.EmbedHTML = oe.HTML
		meta.MediaWidth = oe.Width.ptr()
		meta.MediaHeight = oe.Height.ptr()
		if oe.ProviderName != "" {
			meta.Extra["provider_name"] = oe.ProviderName
		}
		if oe.Type != "" {
			meta.Extra["oembed_type"] = oe.Type
		}
	}

	if meta.EmbedHTML == "" {
		meta.EmbedHTML = fallbackEmbed(cls.Provider, rawURL, id, meta.Title)
	}
	return meta, nil
}

type oEmbedResponse struct {
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	AuthorName   string    `json:"author_name"`
	ProviderName string    `json:"provider_name"`
	ThumbnailURL string    `json:"thumbnail_url"`
	HTML         string    `json:"html"`
	Width        dimension `json:"width"`
	Height       dimension `json:"height"`
}

// oEmbed 没有配置接口时返回 nil, nil
func (f *Fetcher) oEmbed(ctx context.Context, provider Provider, target string) (*oEmbedResponse, error) {
	tmpl := f.endpoints[provider]
	if tmpl == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf(tmpl, url.QueryEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var out oEmbedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}
	return &out, nil
}

// dimension 兼容数字与数字字符串，"100%" 之类的值视为缺失
type dimension struct {
	v  int
	ok bool
}

func (d *dimension) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		d.v, d.ok = int(n), true
	}
	return nil
}

func (d dimension) ptr() *int {
	if !d.ok {
		return nil
	}
	v := d.v
	return &v
}
