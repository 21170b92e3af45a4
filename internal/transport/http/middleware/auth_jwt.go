package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/domain"
	resp "tech-news-api/internal/transport/http/response"
)

const KeyClaims = "claims"

var ErrTokenMissing = domain.Auth("token missing")

// bearer 头缺失或格式不对都算“缺 token”
func bearer(c *gin.Context) (string, bool) {
	ah := c.GetHeader("Authorization")
	scheme, tok, ok := strings.Cut(strings.TrimSpace(ah), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// Authenticate 校验 token 并把 claims 放进 context
func Authenticate(c *gin.Context, j *auth.JWTer) (*auth.Claims, error) {
	if claims, ok := ClaimsFrom(c); ok {
		return claims, nil
	}
	tok, ok := bearer(c)
	if !ok {
		return nil, ErrTokenMissing
	}
	claims, err := j.Parse(tok)
	if err != nil {
		return nil, err
	}
	c.Set(KeyClaims, claims)
	return claims, nil
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// AuthJWT 分组级中间件；requireRole 为空只要求登录
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authenticate(c, j)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, domain.Forbidden(requireRole+" access required"))
			return
		}
		c.Next()
	}
}
