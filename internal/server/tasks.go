package server

import (
	"net/http"

	"github.com/iceymoss/mdrdr/internal/repo"

	"github.com/gin-gonic/gin"
)

func (s *Server) listTasks(c *gin.Context) {
	if s.deps.Tasks == nil {
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.deps.Tasks.Jobs()})
}

func (s *Server) runTask(c *gin.Context) {
	if s.deps.Tasks == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": "scheduler disabled"})
		return
	}
	if err := s.deps.Tasks.ManualRun(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Triggered"})
}

// listRuns 最近的执行记录，job 为空时返回全部
func (s *Server) listRuns(c *gin.Context) {
	if s.deps.Runs == nil {
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	limit := repo.ParseInt(c.Query("limit"), 20)
	if limit < 1 || limit > repo.MaxPageSize {
		limit = 20
	}
	runs, err := s.deps.Runs.Recent(c.Request.Context(), c.Query("job"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}
