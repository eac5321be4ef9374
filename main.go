package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"dodgearena/server"
)

// dodgearena 入口：启动 HTTP + WebSocket 服务，并初始化房间管理器
func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.Parse()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			server.Log.Warnf("sentry init: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.StatsviewAddr != "" {
		// 运行时指标面板，需在 statsview.New() 之前完成配置
		viewer.SetConfiguration(viewer.WithAddr(cfg.StatsviewAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	reporter := server.NewHTTPReporter(cfg.APIURL, cfg.AdminUsername, cfg.AdminPassword, cfg.ExternalTimeout)
	go func() {
		// 登录失败不影响游戏，只是无法上报结果
		if err := reporter.Login(context.Background()); err != nil {
			server.Log.Warnf("report backend login failed, results will not be reported: %v", err)
			return
		}
		server.Log.Info("report backend login successful")
	}()

	cfg.Room.ReportTimeout = 3 * cfg.ExternalTimeout
	rm := server.NewRoomManager(cfg.Room, reporter)
	ws := &server.WSHandler{
		Manager:  rm,
		Verifier: server.NewHTTPVerifier(cfg.APIURL, cfg.ExternalTimeout),
		Timeout:  cfg.ExternalTimeout,
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: server.NewRouter(rm, ws)}

	go func() {
		server.Log.Infof("dodgearena listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rm.Shutdown(ctx); err != nil {
		server.Log.Warnf("room shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
}
