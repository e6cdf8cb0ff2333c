package server

import (
	"net/http"

	pkgerr "github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/logger"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError CodeMsg 按错误码映射状态码，其他错误统一 500
func abortWithError(c *gin.Context, err error) {
	if cm, ok := pkgerr.FromError(err); ok {
		status := cm.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.Error("❌ [API] Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.AbortWithStatusJSON(status, gin.H{"error": cm.Tag(), "detail": cm.Msg})
		return
	}
	logger.Error("❌ [API] Unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":  xerr.Tag(xerr.SERVER_COMMON_ERROR),
		"detail": err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	abortWithError(c, pkgerr.New(xerr.REQUEST_PARAM_ERROR, msg))
}
