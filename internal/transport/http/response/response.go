package response

import (
	"github.com/gin-gonic/gin"

	"tech-news-api/internal/domain"
)

// ErrorBody 所有错误统一 {"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

type Message struct {
	Message string `json:"message"`
}

func Error(msg string) ErrorBody { return ErrorBody{Error: msg} }

// Abort 按错误类别写状态码并终止后续 handler
func Abort(c *gin.Context, err error) {
	if domain.KindOf(err) == domain.KindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(Status(err), Error(domain.PublicMessage(err)))
}
