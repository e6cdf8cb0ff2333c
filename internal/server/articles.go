package server

import (
	"net/http"
	"strconv"

	"github.com/iceymoss/mdrdr/internal/repo"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) listArticles(c *gin.Context) {
	q := repo.ListQuery{
		Page:     repo.ParseInt(c.Query("page"), 1),
		Limit:    repo.ParseInt(c.Query("limit"), repo.DefaultPageSize),
		Q:        c.Query("q"),
		Sort:     c.Query("sort"),
		ClientID: clientID(c),
	}
	res, err := s.deps.Articles.List(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ingestArticle(c *gin.Context) {
	target := targetURL(c)
	if target == "" {
		badRequest(c, "missing url")
		return
	}
	out, err := s.deps.Ingester.IngestArticle(c.Request.Context(), target)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidate(c, out.Article.ID)
	c.JSON(http.StatusOK, out)
}

// getArticle 缓存只保存文章本身，liked 每次按客户端回填
func (s *Server) getArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cid := clientID(c)

	if s.deps.Cache != nil {
		cached, err := s.deps.Cache.Get(ctx, id)
		if err != nil {
			logger.Warn("⚠️ [Cache] Get failed", zap.Uint64("id", id), zap.Error(err))
		}
		if cached != nil {
			if err := s.deps.Articles.MarkLiked(ctx, cid, cached); err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	a, err := s.deps.Articles.Get(ctx, id, cid)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, a); err != nil {
			logger.Warn("⚠️ [Cache] Set failed", zap.Uint64("id", id), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.deps.Articles.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidate(c, id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

func (s *Server) likeArticle(c *gin.Context)   { s.setLike(c, true) }
func (s *Server) unlikeArticle(c *gin.Context) { s.setLike(c, false) }

func (s *Server) setLike(c *gin.Context, like bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cid := clientID(c)
	if cid == "" {
		badRequest(c, "missing_client_id")
		return
	}

	var (
		state *repo.LikeState
		err   error
	)
	if like {
		state, err = s.deps.Articles.Like(c.Request.Context(), id, cid)
	} else {
		state, err = s.deps.Articles.Unlike(c.Request.Context(), id, cid)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidate(c, id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": state.ID, "liked": state.Liked, "likes": state.Likes})
}

func (s *Server) relatedArticles(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	k := repo.ParseInt(c.Query("k"), repo.DefaultRelated)
	if k < 1 || k > 50 {
		k = repo.DefaultRelated
	}
	items, err := s.deps.Articles.Related(c.Request.Context(), id, k)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) invalidate(c *gin.Context, id uint64) {
	if s.deps.Cache == nil || id == 0 {
		return
	}
	if err := s.deps.Cache.Delete(c.Request.Context(), id); err != nil {
		logger.Warn("⚠️ [Cache] Delete failed", zap.Uint64("id", id), zap.Error(err))
	}
}
