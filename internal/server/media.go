package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ingestMedia(c *gin.Context) {
	target := targetURL(c)
	if target == "" {
		badRequest(c, "missing url")
		return
	}
	out, err := s.deps.Ingester.IngestMedia(c.Request.Context(), target)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.invalidate(c, out.Article.ID)
	c.JSON(http.StatusOK, out)
}

// extractPreview 只抽取不入库
func (s *Server) extractPreview(c *gin.Context) {
	target := targetURL(c)
	if target == "" {
		badRequest(c, "missing url")
		return
	}
	res, err := s.deps.Extractor.Extract(c.Request.Context(), target)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
