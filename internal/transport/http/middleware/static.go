package middleware

import "github.com/gin-gonic/gin"

// StaticAssets 上传目录只当图片用：禁止浏览器改判类型，禁止执行任何脚本
func StaticAssets() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; sandbox")
		c.Next()
	}
}
