package router

import (
	"github.com/gin-gonic/gin"

	"tech-news-api/internal/domain"
	httpez "tech-news-api/internal/transport/http/ez"
	mdw "tech-news-api/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1（统一要求 admin 角色）
func NewAdminEngine(o Options, reg *Registry) *gin.Engine {
	r := base(o)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(o.JWT, domain.RoleAdmin))

	reg.MountAllAdmin(httpez.New(admin, o.JWT))
	return r
}
