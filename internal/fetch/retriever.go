package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123 Safari/537.36"
	DefaultAcceptLanguage = "vi,en;q=0.9"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Config 抓取配置，构造后不可变
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Accept         string
	Timeout        time.Duration
	MaxBodyBytes   int64
	MaxRedirects   int
	// BlockPrivate 拒绝连接内网/回环地址
	BlockPrivate bool
}

func DefaultConfig() Config {
	return Config{
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		Accept:         DefaultAccept,
		Timeout:        20 * time.Second,
		MaxBodyBytes:   8 << 20,
		MaxRedirects:   10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = d.AcceptLanguage
	}
	if c.Accept == "" {
		c.Accept = d.Accept
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	return c
}

// Page 抓取结果。FinalURL 为跟随重定向后的实际地址
type Page struct {
	HTML     string
	Status   int
	FinalURL string
}

// OK 空正文或 status >= 400 都视为抓取失败
func (p *Page) OK() bool {
	return p != nil && strings.TrimSpace(p.HTML) != "" && p.Status < 400
}

type Retriever struct {
	cfg    Config
	client *http.Client
}

// New client 为空时按配置构建，测试可注入自己的 client
func New(cfg Config, client *http.Client) *Retriever {
	cfg = cfg.withDefaults()
	if client == nil {
		client = newClient(cfg)
	}
	return &Retriever{cfg: cfg, client: client}
}

func newClient(cfg Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.BlockPrivate {
		transport.DialContext = safeDialContext(dialer)
	} else {
		transport.DialContext = dialer.DialContext
	}

	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Fetch 以浏览器请求头 GET 页面，跟随重定向并记录最终地址
// 只有网络层错误返回 error，HTTP 状态码交给调用方判断
func (r *Retriever) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", r.cfg.Accept)
	req.Header.Set("Accept-Language", r.cfg.AcceptLanguage)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := readLimited(resp.Body, r.cfg.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	html, err := decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		logger.Debug("charset decode failed, using raw bytes", zap.String("url", rawURL), zap.Error(err))
		html = string(body)
	}

	logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.String("final_url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Page{HTML: html, Status: resp.StatusCode, FinalURL: finalURL}, nil
}

// decode 根据 Content-Type 与 <meta charset> 转成 UTF-8
func decode(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var errBodyTooLarge = errors.New("response body exceeds limit")

// readLimited 多读 1 字节用于判断是否超限，limit <= 0 表示不限制
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", errBodyTooLarge, limit)
	}
	return data, nil
}
