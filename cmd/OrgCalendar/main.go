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

	"go.uber.org/zap"

	https_server "OrgCalendar/api/http"
	"OrgCalendar/internal/config"
	"OrgCalendar/internal/initial"
	"OrgCalendar/pkg/redis"
	"OrgCalendar/pkg/zlog"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	defer zlog.Sync()

	// 2. 后台组件: 提醒调度 + 跨实例广播
	if err := https_server.Scheduler.Start(); err != nil {
		zlog.Fatal("reminder scheduler start failed", zap.Error(err))
	}
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	if https_server.BroadcastConsumer != nil {
		go func() {
			defer close(relayDone)
			https_server.Relay.Run(relayCtx, https_server.BroadcastConsumer)
		}()
	} else {
		close(relayDone)
	}

	// 3. 启动 HTTP 服务
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: https_server.GE}
	go func() {
		zlog.Info("server starting", zap.String("addr", addr), zap.Bool("tls", conf.MainConfig.TLS))
		var err error
		if conf.MainConfig.TLS {
			err = srv.ListenAndServeTLS("cert.pem", "key.pem")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start failed", zap.Error(err))
		}
	}()

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Warn("http shutdown failed", zap.Error(err))
	}

	https_server.Scheduler.Stop()
	stopRelay()
	<-relayDone
	if https_server.BroadcastConsumer != nil {
		_ = https_server.BroadcastConsumer.Close()
	}
	https_server.Hub.Close()
	if initial.KafkaPublisher != nil {
		_ = initial.KafkaPublisher.Close()
	}
	if err := redis.Close(); err != nil {
		zlog.Warn("redis close failed", zap.Error(err))
	}
	if sqlDB, err := initial.GormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server stopped")
}
