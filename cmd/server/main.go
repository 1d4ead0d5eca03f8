package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/app"
	"github.com/jengzang/location-bridge-go/internal/config"
)

func main() {
	// 加载配置
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	if cfg.Level() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize bridge", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           bridge.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("server starting", "addr", cfg.Port, "auth", cfg.JWTSecret != "", "geocoder", cfg.GeocoderEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
