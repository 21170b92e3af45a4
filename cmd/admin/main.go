package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tech-news-api/internal/app"
	"tech-news-api/internal/core/config"
	"tech-news-api/internal/core/logger"
	"tech-news-api/internal/core/server"
	"tech-news-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("build dependencies", zap.Error(err))
	}
	defer deps.Close()

	// 路由（后台端）；后台不挂静态文件
	opts := deps.RouterOptions(cfg, log)
	opts.StaticDirs = nil
	r := router.NewAdminEngine(opts, deps.AdminRegistry())

	a := cfg.App.Admin
	addr := server.Addr(a.Host, a.Port)
	srv := server.BuildServer(addr, r, a.ReadTimeout(), a.WriteTimeout(), a.IdleTimeout())
	srv.ErrorLog = logger.ToStdLogger(log, zapcore.WarnLevel)

	host4human := a.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(a.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	// 异步启动；失败立即退出
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("admin api stopped gracefully")
}
