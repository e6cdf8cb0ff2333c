package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/internal/engine"
	"github.com/iceymoss/mdrdr/internal/extract"
	"github.com/iceymoss/mdrdr/internal/ingest"
	"github.com/iceymoss/mdrdr/internal/repo"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ArticleStore 接口层需要的存储能力，ArticleRepo 和 MongoArticleRepo 都实现了它
type ArticleStore interface {
	List(ctx context.Context, q repo.ListQuery) (*repo.ListResult, error)
	Get(ctx context.Context, id uint64, clientID string) (*objects.Article, error)
	MarkLiked(ctx context.Context, clientID string, items ...*objects.Article) error
	Delete(ctx context.Context, id uint64) error
	Like(ctx context.Context, id uint64, clientID string) (*repo.LikeState, error)
	Unlike(ctx context.Context, id uint64, clientID string) (*repo.LikeState, error)
	Related(ctx context.Context, id uint64, k int) ([]*objects.Article, error)
}

type Ingester interface {
	IngestArticle(ctx context.Context, rawURL string) (*ingest.Outcome, error)
	IngestMedia(ctx context.Context, rawURL string) (*ingest.Outcome, error)
}

type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*extract.Result, error)
}

// TaskRunner 任务面板使用
type TaskRunner interface {
	Jobs() []engine.JobStats
	ManualRun(uniqueJobName string) error
}

// RunHistory 任务执行记录
type RunHistory interface {
	Recent(ctx context.Context, jobName string, limit int) ([]*objects.SysTaskRun, error)
}

// Deps 服务依赖，Cache / Tasks / Runs 可为空
type Deps struct {
	Articles  ArticleStore
	Ingester  Ingester
	Extractor Extractor
	Cache     ArticleCache
	Tasks     TaskRunner
	Runs      RunHistory
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   Deps
}

func NewServer(mode string, deps Deps) *Server {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{engine: router, deps: deps}

	api := router.Group("/api")
	{
		articles := api.Group("/articles")
		articles.GET("", s.listArticles)
		articles.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		articles.POST("/ingest", s.ingestArticle)
		articles.GET("/:id", s.getArticle)
		articles.DELETE("/:id", s.deleteArticle)
		articles.POST("/:id/like", s.likeArticle)
		articles.DELETE("/:id/like", s.unlikeArticle)
		articles.GET("/:id/related", s.relatedArticles)

		api.POST("/media/ingest", s.ingestMedia)
		api.POST("/extract", s.extractPreview)

		api.GET("/tasks", s.listTasks)
		api.GET("/tasks/runs", s.listRuns)
		api.POST("/tasks/:name/run", s.runTask)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": "route not found"})
	})

	return s
}

// Handler 供测试和自定义监听使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("🌐 [Server] Listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// clientID 与前端约定的 X-Client-Id，最长 200 字符
func clientID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader("X-Client-Id"))
	if len(id) > 200 {
		id = id[:200]
	}
	return id
}

type urlBody struct {
	URL string `json:"url"`
}

// targetURL 优先取 query 参数，其次 JSON body
func targetURL(c *gin.Context) string {
	if u := strings.TrimSpace(c.Query("url")); u != "" {
		return u
	}
	var body urlBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.URL)
}
