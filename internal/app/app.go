// Package app 组装两个二进制共用的依赖：存储、媒体、JWT、各 Store。
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/core/cache"
	"tech-news-api/internal/core/config"
	"tech-news-api/internal/core/database"
	"tech-news-api/internal/core/storage"
	"tech-news-api/internal/feature/article"
	"tech-news-api/internal/feature/content"
	"tech-news-api/internal/feature/media"
	"tech-news-api/internal/feature/user"
	"tech-news-api/internal/repo"
	"tech-news-api/internal/transport/http/handler"
	"tech-news-api/internal/transport/http/router"
	"tech-news-api/pkg/utils"
)

type Deps struct {
	JWT      *auth.JWTer
	Users    *user.Store
	Articles *article.Store
	Media    *media.Manager
	Renderer *content.Renderer
	Cache    *cache.Cache // 未启用时为 nil
	CacheTTL time.Duration

	static  map[media.Area]string
	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Deps, error) {
	d := &Deps{}

	p, err := d.provider(cfg, l)
	if err != nil {
		d.Close()
		return nil, err
	}
	backend, err := d.mediaBackend(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: cfg.JWT.Leeway(),
	}
	d.Media = media.NewManager(backend, cfg.Media.PublicBaseURL, l.Named("media"))
	d.Users = user.NewStore(repo.NewUserRepo(p, l), utils.NewHasher(cfg.Auth.BcryptCost))
	d.Articles = article.NewStore(repo.NewArticleRepo(p, l), d.Media, l.Named("article"))
	d.Renderer = content.NewRenderer()
	if cfg.Cache.Enable {
		rb := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		d.closers = append(d.closers, rb.Close)
		d.Cache, d.CacheTTL = cache.New(rb, cfg.Cache.Prefix), cfg.Cache.TTL()
	}
	return d, nil
}

func (d *Deps) provider(cfg *config.Config, l *zap.Logger) (storage.Provider, error) {
	switch cfg.Storage.Driver {
	case storage.DriverFile:
		return storage.NewFileProvider(cfg.Storage.Dir)
	case storage.DriverRedis:
		rp := storage.NewRedisProvider(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Storage.RedisPrefix)
		d.closers = append(d.closers, rp.Close)
		return rp, nil
	case storage.DriverGorm:
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			d.closers = append(d.closers, sqlDB.Close)
		}
		return storage.NewGormProvider(db, cfg.DB.AutoMigrate)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedDriver, cfg.Storage.Driver)
	}
}

func (d *Deps) mediaBackend(ctx context.Context, cfg *config.Config) (media.Backend, error) {
	switch cfg.Media.Driver {
	case "s3":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s := cfg.Media.S3
		return media.NewS3Backend(ctx, media.S3Options{
			Region:       s.Region,
			Endpoint:     s.Endpoint,
			AccessKey:    s.AccessKey,
			SecretKey:    s.SecretKey,
			Bucket:       s.Bucket,
			Prefix:       s.Prefix,
			UsePathStyle: s.UsePathStyle,
		})
	default:
		lb, err := media.NewLocalBackend(cfg.Media.Dir)
		if err != nil {
			return nil, err
		}
		d.static = make(map[media.Area]string, len(media.Areas))
		for _, a := range media.Areas {
			d.static[a] = lb.Dir(a)
		}
		return lb, nil
	}
}

// RouterOptions engine 公共参数
func (d *Deps) RouterOptions(cfg *config.Config, l *zap.Logger) router.Options {
	return router.Options{
		Log:     l,
		JWT:     d.JWT,
		Origins: cfg.CORS.Origins,
		Limits: router.Limits{
			RPS:         cfg.Limits.RPS,
			Burst:       cfg.Limits.Burst,
			Concurrency: cfg.Limits.Concurrency,
			MaxBody:     cfg.Limits.MaxBodyMB << 20,
			Timeout:     time.Duration(cfg.Limits.TimeoutSec) * time.Second,
		},
		StaticDirs: d.static,
	}
}

// APIRegistry 用户端模块
func (d *Deps) APIRegistry() *router.Registry {
	reg := &router.Registry{}
	reg.Register(
		handler.NewAuthHandler(d.Users, d.JWT),
		handler.NewArticleHandler(d.Articles, d.Renderer).WithRenderCache(d.Cache, d.CacheTTL),
		handler.NewUploadHandler(d.Media),
	)
	return reg
}

// AdminRegistry 管理端模块
func (d *Deps) AdminRegistry() *router.Registry {
	reg := &router.Registry{}
	reg.Register(handler.NewAdminHandler(d.Users))
	return reg
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
	d.closers = nil
}
