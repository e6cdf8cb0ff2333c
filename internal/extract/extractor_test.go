package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/mdrdr/internal/fetch"
	"github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher 按 URL 返回预置页面，未配置的地址返回网络错误
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetch.Page
	calls []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]*fetch.Page{}}
}

func (s *stubFetcher) add(url, body string) {
	s.pages[url] = &fetch.Page{HTML: body, Status: 200, FinalURL: url}
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
	if p, ok := s.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("dial %s: connection refused", url)
}

var longParagraph = strings.Repeat("Distributed systems fail in interesting ways. ", 8)

const mediumMirrorPage = `<html><head><title>Mirror</title></head><body>
<div class="meta"><a href="/@alice-smith">Alice Smith</a><time datetime="2024-03-01T10:00:00Z">Mar 1</time></div>
<article><h1>Real Title</h1><section><p>%s</p></section></article>
</body></html>`

func TestExtractMediumViaMirror(t *testing.T) {
	f := newStubFetcher()
	f.add("https://freedium.cfd/https://medium.com/@a/post", fmt.Sprintf(mediumMirrorPage, longParagraph))

	res, err := New(f).Extract(context.Background(), "https://medium.com/@a/post")
	require.NoError(t, err)

	assert.Equal(t, SourceMediumMirror, res.SourceUsed)
	assert.NotEmpty(t, res.ContentHTML)
	assert.Contains(t, res.ContentHTML, "Distributed systems fail")
	assert.Equal(t, "Real Title", res.Title)
	assert.Equal(t, "Alice Smith", res.Author)
	require.NotNil(t, res.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *res.PublishedAt)

	// 镜像成功后会尝试原站补充元数据
	assert.Contains(t, f.calls, "https://medium.com/@a/post")
}

func TestExtractMediumPrefersOriginMetadata(t *testing.T) {
	f := newStubFetcher()
	f.add("https://freedium.cfd/https://medium.com/@a/post", fmt.Sprintf(mediumMirrorPage, longParagraph))
	f.add("https://medium.com/@a/post", `<html><head>
<script type="application/ld+json">{"@type":"BlogPosting","author":{"name":"Origin Author"},"datePublished":"2023-07-08T09:00:00Z"}</script>
</head><body><p>paywalled</p></body></html>`)

	res, err := New(f).Extract(context.Background(), "http://medium.com/@a/post?source=rss")
	require.NoError(t, err)

	assert.Equal(t, "Origin Author", res.Author)
	require.NotNil(t, res.PublishedAt)
	assert.Equal(t, 2023, res.PublishedAt.Year())
	assert.Equal(t, "https://freedium.cfd/https://medium.com/@a/post", f.calls[0])
}

func TestExtractMediumFallsBackToOrigin(t *testing.T) {
	f := newStubFetcher()
	f.add("https://medium.com/@a/post", fmt.Sprintf(mediumMirrorPage, longParagraph))

	res, err := New(f).Extract(context.Background(), "https://medium.com/@a/post")
	require.NoError(t, err)
	assert.Equal(t, SourceMediumFallback, res.SourceUsed)
	assert.Contains(t, res.ContentHTML, "Distributed systems fail")
}

func TestExtractMediumMirrorFailed(t *testing.T) {
	_, err := New(newStubFetcher()).Extract(context.Background(), "https://medium.com/@a/post")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, xerr.MIRROR_FAILED))
}

func TestExtractMediumCustomMirror(t *testing.T) {
	f := newStubFetcher()
	f.add("https://mirror.test/https://alice.medium.com/post", fmt.Sprintf(mediumMirrorPage, longParagraph))

	res, err := New(f, WithMirrorBase("https://mirror.test")).Extract(context.Background(), "https://alice.medium.com/post")
	require.NoError(t, err)
	assert.Equal(t, SourceMediumMirror, res.SourceUsed)
}

func TestNormaliseMediumURL(t *testing.T) {
	assert.Equal(t, "https://medium.com/@a/post", NormaliseMediumURL("http://medium.com/@a/post?source=rss"))
	assert.Equal(t, "https://medium.com/@a/post", NormaliseMediumURL(" https://medium.com/@a/post#frag "))
	assert.Equal(t, "https://freedium.cfd/https://medium.com/x", MirrorURL(DefaultMirrorBase, "https://medium.com/x?y=1"))
}

const substackPostPage = `<html><head><meta property="og:title" content="Hello Readers"></head><body>
<div class="available-content"><div class="body markup"><p>%s</p></div></div>
<div id="discussion"><p>comments here</p></div>
</body></html>`

func TestExtractSubstackResolvesListingFromNextData(t *testing.T) {
	f := newStubFetcher()
	f.add("https://substack.com/browse/staff-picks", `<html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"post":{"canonical_url":"https://writer.substack.com/p/hello"}}}}</script>
</body></html>`)
	f.add("https://writer.substack.com/p/hello", fmt.Sprintf(substackPostPage, longParagraph))

	res, err := New(f).Extract(context.Background(), "https://substack.com/browse/staff-picks")
	require.NoError(t, err)

	assert.Equal(t, SourceSubstack, res.SourceUsed)
	assert.Equal(t, "Hello Readers", res.Title)
	assert.Contains(t, res.ContentHTML, "Distributed systems fail")
	assert.NotContains(t, res.ContentHTML, "comments here")
	assert.Equal(t, "https://writer.substack.com/p/hello", res.FinalURL)
}

func TestExtractSubstackResolvesListingFromAnchor(t *testing.T) {
	f := newStubFetcher()
	f.add("https://substack.com/profile/42-writer", `<html><body>
<a href="https://substack.com/about">about</a>
<a href="https://writer.substack.com/p/first">first</a>
<a href="https://writer.substack.com/p/second">second</a>
</body></html>`)
	f.add("https://writer.substack.com/p/first", fmt.Sprintf(substackPostPage, longParagraph))

	res, err := New(f).Extract(context.Background(), "https://substack.com/profile/42-writer")
	require.NoError(t, err)
	assert.Equal(t, "https://writer.substack.com/p/first", res.FinalURL)
}

func TestExtractSubstackPostSkipsResolution(t *testing.T) {
	f := newStubFetcher()
	f.add("https://writer.substack.com/p/direct", fmt.Sprintf(substackPostPage, longParagraph))

	_, err := New(f).Extract(context.Background(), "https://writer.substack.com/p/direct")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://writer.substack.com/p/direct"}, f.calls)
}

func TestExtractSubstackFetchFailed(t *testing.T) {
	_, err := New(newStubFetcher()).Extract(context.Background(), "https://writer.substack.com/p/missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, xerr.FETCH_SUBSTACK_FAILED))
}

func TestExtractGeneric(t *testing.T) {
	f := newStubFetcher()
	f.add("https://blog.example.com/post", fmt.Sprintf(`<html><head>
<meta property="og:title" content="Generic Post | Example Blog">
<meta property="og:site_name" content="Example Blog">
<meta name="author" content="Bob Writer">
<meta property="article:published_time" content="2022-02-03">
</head><body><nav>menu</nav><article><p>%s</p><script>alert(1)</script></article></body></html>`, longParagraph))

	res, err := New(f).Extract(context.Background(), "https://blog.example.com/post")
	require.NoError(t, err)

	assert.Equal(t, SourceOrigin, res.SourceUsed)
	assert.Equal(t, "Generic Post", res.Title)
	assert.Equal(t, "Bob Writer", res.Author)
	require.NotNil(t, res.PublishedAt)
	assert.Equal(t, time.Date(2022, 2, 3, 0, 0, 0, 0, time.UTC), *res.PublishedAt)
	assert.NotContains(t, res.ContentHTML, "<script")
	assert.True(t, strings.HasPrefix(res.ContentHTML, "<!DOCTYPE html>"))
}

func TestExtractGenericFetchFailed(t *testing.T) {
	f := newStubFetcher()
	f.pages["https://blog.example.com/gone"] = &fetch.Page{HTML: "<html>gone</html>", Status: 500}

	_, err := New(f).Extract(context.Background(), "https://blog.example.com/gone")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, xerr.FETCH_ORIGIN_FAILED))

	_, err = New(f).Extract(context.Background(), "https://unreachable.example.com/")
	assert.True(t, errors.IsCode(err, xerr.FETCH_ORIGIN_FAILED))
}
