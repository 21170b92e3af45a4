package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "tech-news-api/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（bcrypt 和整文件读写都很重）
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Error("server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
