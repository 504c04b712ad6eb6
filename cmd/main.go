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

	"chatrelay/backend/internal/api/handler"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/logging"
	"chatrelay/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components and blocks until a signal or a server error.
func run() error {
	// 1. Configuration & Logger
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("starting chat relay", "port", cfg.Port, "protocol", cfg.Protocol)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage. The legacy protocol never touches it.
	var backend storage.Backend = storage.Unavailable{}
	if !cfg.Legacy() {
		backend = storage.Open(ctx, cfg, log)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	// 3. Chat hub
	hub := chathub.NewManagerService(chathub.Options{
		Storage:      backend,
		Logger:       log,
		Legacy:       cfg.Legacy(),
		HistoryLimit: cfg.HistoryLimit,
	})
	go hub.Run()

	// 4. HTTP
	if ginMode := os.Getenv(gin.EnvGinMode); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(hub, handler.Options{
		Origins:        cfg.Origins(),
		SendBufferSize: cfg.SendBufferSize,
		MaxMessageSize: int64(cfg.MaxMessageSize),
		Logger:         log,
	})

	server := &http.Server{
		Addr:           cfg.ListenAddr(),
		Handler:        handler.NewRouter(h),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-errChan:
		_ = hub.Shutdown(shutdownTimeout)
		return err
	}

	// 6. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Error("chat hub shutdown incomplete", "error", err)
	}

	log.Info("chat relay stopped")
	return nil
}
