package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iceymoss/mdrdr/internal/engine"
	"github.com/iceymoss/mdrdr/internal/extract"
	"github.com/iceymoss/mdrdr/internal/ingest"
	"github.com/iceymoss/mdrdr/internal/repo"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
	pkgerr "github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	articles map[uint64]*objects.Article
	likes    map[uint64]map[string]bool
	lastList repo.ListQuery
	gets     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		articles: map[uint64]*objects.Article{
			1: {ID: 1, Kind: objects.KindArticle, URL: "https://a.example.com/1", Title: "One"},
			2: {ID: 2, Kind: objects.KindArticle, URL: "https://a.example.com/2", Title: "Two"},
		},
		likes: map[uint64]map[string]bool{},
	}
}

func (f *fakeStore) List(_ context.Context, q repo.ListQuery) (*repo.ListResult, error) {
	f.lastList = q.Normalize()
	items := []*objects.Article{f.articles[1], f.articles[2]}
	_ = f.MarkLiked(context.Background(), q.ClientID, items...)
	return &repo.ListResult{Items: items, Total: 2, Page: f.lastList.Page, Limit: f.lastList.Limit}, nil
}

func (f *fakeStore) Get(ctx context.Context, id uint64, clientID string) (*objects.Article, error) {
	f.gets++
	a, ok := f.articles[id]
	if !ok {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	cp := *a
	_ = f.MarkLiked(ctx, clientID, &cp)
	return &cp, nil
}

func (f *fakeStore) MarkLiked(_ context.Context, clientID string, items ...*objects.Article) error {
	for _, a := range items {
		a.Liked = clientID != "" && f.likes[a.ID][clientID]
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.articles[id]; !ok {
		return pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	delete(f.articles, id)
	return nil
}

func (f *fakeStore) setLike(id uint64, clientID string, like bool) (*repo.LikeState, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	if f.likes[id] == nil {
		f.likes[id] = map[string]bool{}
	}
	if like {
		f.likes[id][clientID] = true
	} else {
		delete(f.likes[id], clientID)
	}
	a.Likes = int64(len(f.likes[id]))
	return &repo.LikeState{ID: id, Liked: like, Likes: a.Likes}, nil
}

func (f *fakeStore) Like(_ context.Context, id uint64, clientID string) (*repo.LikeState, error) {
	return f.setLike(id, clientID, true)
}

func (f *fakeStore) Unlike(_ context.Context, id uint64, clientID string) (*repo.LikeState, error) {
	return f.setLike(id, clientID, false)
}

func (f *fakeStore) Related(_ context.Context, id uint64, k int) ([]*objects.Article, error) {
	if _, ok := f.articles[id]; !ok {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	return []*objects.Article{f.articles[2]}, nil
}

type fakeIngester struct {
	err  error
	urls []string
}

func (f *fakeIngester) IngestArticle(_ context.Context, rawURL string) (*ingest.Outcome, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Outcome{Decision: ingest.DecisionCreated, Article: &objects.Article{ID: 9, URL: rawURL}}, nil
}

func (f *fakeIngester) IngestMedia(_ context.Context, rawURL string) (*ingest.Outcome, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Outcome{Decision: ingest.DecisionUpdated, Article: &objects.Article{ID: 1, Kind: objects.KindMedia}}, nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, rawURL string) (*extract.Result, error) {
	if strings.Contains(rawURL, "down") {
		return nil, pkgerr.Wrap(xerr.FETCH_ORIGIN_FAILED, "fetch origin", errors.New("status 503"))
	}
	return &extract.Result{Title: "Preview", SourceUsed: extract.SourceOrigin, FinalURL: rawURL}, nil
}

type memCache struct {
	items   map[uint64]objects.Article
	deleted []uint64
}

func (m *memCache) Get(_ context.Context, id uint64) (*objects.Article, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memCache) Set(_ context.Context, a *objects.Article) error {
	cp := *a
	cp.Liked = false
	m.items[a.ID] = cp
	return nil
}

func (m *memCache) Delete(_ context.Context, id uint64) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type fakeTasks struct{ ran []string }

func (f *fakeTasks) Jobs() []engine.JobStats {
	return []engine.JobStats{{Name: "articles:refresh", Status: engine.StatusIdle, Source: engine.SourceSystem}}
}

func (f *fakeTasks) ManualRun(name string) error {
	if name != "articles:refresh" {
		return errors.New("job not found")
	}
	f.ran = append(f.ran, name)
	return nil
}

type fakeRuns struct {
	job   string
	limit int
}

func (f *fakeRuns) Recent(_ context.Context, jobName string, limit int) ([]*objects.SysTaskRun, error) {
	f.job, f.limit = jobName, limit
	return []*objects.SysTaskRun{{ID: 1, JobName: "articles:refresh", Status: objects.TaskRunSuccess}}, nil
}

type fixture struct {
	store    *fakeStore
	ingester *fakeIngester
	cache    *memCache
	tasks    *fakeTasks
	runs     *fakeRuns
	handler  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		store:    newFakeStore(),
		ingester: &fakeIngester{},
		cache:    &memCache{items: map[uint64]objects.Article{}},
		tasks:    &fakeTasks{},
		runs:     &fakeRuns{},
	}
	f.handler = NewServer(gin.TestMode, Deps{
		Articles:  f.store,
		Ingester:  f.ingester,
		Extractor: fakeExtractor{},
		Cache:     f.cache,
		Tasks:     f.tasks,
		Runs:      f.runs,
	}).Handler()
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestListArticles(t *testing.T) {
	f := newFixture()
	f.store.likes[2] = map[string]bool{"client-a": true}

	w := f.do(http.MethodGet, "/api/articles?page=0&limit=500&q=go&sort=bogus", "", map[string]string{"X-Client-Id": " client-a "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	body := decode(t, w)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, repo.MaxPageSize, body["limit"])
	items := body["items"].([]any)
	assert.Equal(t, false, items[0].(map[string]any)["liked"])
	assert.Equal(t, true, items[1].(map[string]any)["liked"])

	assert.Equal(t, "client-a", f.store.lastList.ClientID)
	assert.Equal(t, "-created_at", f.store.lastList.Sort)
}

func TestHealth(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/api/articles/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestIngestArticle(t *testing.T) {
	t.Run("query url", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodPost, "/api/articles/ingest?url=https://medium.com/p/abc", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "created", body["status"])
		assert.Equal(t, "https://medium.com/p/abc", body["article"].(map[string]any)["url"])
		assert.Contains(t, f.cache.deleted, uint64(9))
	})

	t.Run("body url", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodPost, "/api/articles/ingest", `{"url":"https://blog.example.com/x"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"https://blog.example.com/x"}, f.ingester.urls)
	})

	t.Run("missing url", func(t *testing.T) {
		w := newFixture().do(http.MethodPost, "/api/articles/ingest", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decode(t, w)["error"])
	})

	cases := []struct {
		err    error
		status int
		tag    string
	}{
		{pkgerr.New(xerr.MIRROR_FAILED, "mirror and origin failed"), http.StatusBadGateway, "mirror_failed"},
		{pkgerr.New(xerr.SUMMARIZE_FAILED, "summarize"), http.StatusBadGateway, "summarize_failed"},
		{pkgerr.New(xerr.INGEST_IN_PROGRESS, "busy"), http.StatusConflict, "ingest_in_progress"},
		{errors.New("boom"), http.StatusInternalServerError, "server_error"},
	}
	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			f := newFixture()
			f.ingester.err = tc.err
			w := f.do(http.MethodPost, "/api/articles/ingest?url=https://x.example.com", "", nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.tag, decode(t, w)["error"])
		})
	}
}

func TestGetArticleCache(t *testing.T) {
	f := newFixture()
	f.store.likes[1] = map[string]bool{"client-a": true}

	w := f.do(http.MethodGet, "/api/articles/1", "", map[string]string{"X-Client-Id": "client-a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["liked"])
	assert.Equal(t, 1, f.store.gets)
	assert.False(t, f.cache.items[1].Liked)

	// 命中缓存，liked 按客户端重新计算
	w = f.do(http.MethodGet, "/api/articles/1", "", map[string]string{"X-Client-Id": "client-b"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["liked"])
	assert.Equal(t, 1, f.store.gets)

	w = f.do(http.MethodGet, "/api/articles/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["error"])

	w = f.do(http.MethodGet, "/api/articles/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeUnlike(t *testing.T) {
	f := newFixture()
	headers := map[string]string{"X-Client-Id": "client-a"}

	w := f.do(http.MethodPost, "/api/articles/1/like", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_client_id", decode(t, w)["detail"])

	for i := 0; i < 2; i++ {
		w = f.do(http.MethodPost, "/api/articles/1/like", "", headers)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"id":1,"liked":true,"likes":1}`, w.Body.String())
	}

	for i := 0; i < 2; i++ {
		w = f.do(http.MethodDelete, "/api/articles/1/like", "", headers)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"id":1,"liked":false,"likes":0}`, w.Body.String())
	}

	assert.Contains(t, f.cache.deleted, uint64(1))
	w = f.do(http.MethodPost, "/api/articles/77/like", "", headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAndRelated(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/articles/1/related?k=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = f.do(http.MethodDelete, "/api/articles/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, f.cache.deleted, uint64(1))

	w = f.do(http.MethodDelete, "/api/articles/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodGet, "/api/articles/1/related", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaAndExtract(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/media/ingest", `{"url":"https://youtu.be/abc"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", decode(t, w)["status"])

	w = f.do(http.MethodPost, "/api/media/ingest", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.ingester.err = pkgerr.New(xerr.UNSUPPORTED_PROVIDER, "not a media url")
	w = f.do(http.MethodPost, "/api/media/ingest?url=https://example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_provider", decode(t, w)["error"])

	w = f.do(http.MethodPost, "/api/extract?url=https://blog.example.com/p", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Preview", body["title"])
	assert.Equal(t, "origin", body["sourceUsed"])

	w = f.do(http.MethodPost, "/api/extract?url=https://down.example.com/p", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "fetch_origin_failed", decode(t, w)["error"])
}

func TestTasksAndNoRoute(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = f.do(http.MethodGet, "/api/tasks/runs?job=articles:refresh&limit=500", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)
	assert.Equal(t, "articles:refresh", f.runs.job)
	assert.Equal(t, 20, f.runs.limit)

	w = f.do(http.MethodPost, "/api/tasks/articles:refresh/run", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"articles:refresh"}, f.tasks.ran)

	w = f.do(http.MethodPost, "/api/tasks/nope/run", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["error"])
}
