package fetch

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSendsBrowserHeadersAndFollowsRedirects(t *testing.T) {
	var ua, lang string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		lang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>hi</p></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := New(Config{}, nil)
	page, err := r.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)

	assert.True(t, page.OK())
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, srv.URL+"/final", page.FinalURL)
	assert.Contains(t, page.HTML, "<p>hi</p>")
	assert.Equal(t, DefaultUserAgent, ua)
	assert.Equal(t, DefaultAcceptLanguage, lang)
}

func TestFetchReturnsErrorStatusWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	page, err := New(Config{}, srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, page.Status)
	assert.False(t, page.OK())
}

func TestFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in latin-1
		_, _ = w.Write([]byte("<html><body>caf\xe9</body></html>"))
	}))
	defer srv.Close()

	page, err := New(Config{}, srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "café")
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	_, err := New(Config{MaxBodyBytes: 16}, srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBodyTooLarge)
}

func TestFetchBlocksPrivateAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>secret</p>"))
	}))
	defer srv.Close()

	_, err := New(Config{BlockPrivate: true}, nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked connection")
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("127.0.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("10.1.2.3")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.False(t, isPrivateIP(net.ParseIP("93.184.216.34")))
}

func TestPageOK(t *testing.T) {
	var nilPage *Page
	assert.False(t, nilPage.OK())
	assert.False(t, (&Page{HTML: "   ", Status: 200}).OK())
	assert.True(t, (&Page{HTML: "<p>x</p>", Status: 200}).OK())
}
