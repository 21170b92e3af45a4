package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/core/server"
	"tech-news-api/internal/feature/media"
	httpez "tech-news-api/internal/transport/http/ez"
	mdw "tech-news-api/internal/transport/http/middleware"
)

const welcome = "Bienvenue sur l'API Tech-News"

// Limits 通用中间件参数，零值使用默认
type Limits struct {
	RPS         float64
	Burst       int
	Concurrency int64
	MaxBody     int64
	Timeout     time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.RPS <= 0 {
		l.RPS = 20
	}
	if l.Burst <= 0 {
		l.Burst = 40
	}
	if l.Concurrency <= 0 {
		l.Concurrency = 300
	}
	if l.MaxBody <= 0 {
		l.MaxBody = 16 << 20
	}
	if l.Timeout <= 0 {
		l.Timeout = 10 * time.Second
	}
	return l
}

type Options struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Origins []string
	Limits  Limits
	// StaticDirs 本地媒体目录，按 area 挂到 /<area>/；对象存储时为空
	StaticDirs map[media.Area]string
}

func base(o Options) *gin.Engine {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	lim := o.Limits.withDefaults()

	r := server.NewRouter(l, o.Origins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(lim.RPS), lim.Burst),
		mdw.ConcurrencyLimit(lim.Concurrency),
		mdw.MaxBodyBytes(lim.MaxBody),
		mdw.Timeout(lim.Timeout),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewAPIEngine 用户端：文章、认证、上传
func NewAPIEngine(o Options, reg *Registry) *gin.Engine {
	r := base(o)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, welcome) })
	assets := r.Group("", mdw.StaticAssets())
	for area, dir := range o.StaticDirs {
		assets.Static("/"+string(area), dir)
	}

	reg.MountAllAPI(httpez.New(&r.RouterGroup, o.JWT))
	return r
}
