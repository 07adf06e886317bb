package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/app"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/config"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

func main() {
	config.LoadDotEnv()

	// Ensure all log output goes to stdout so App Runner captures it in Application Logs
	log.SetOutput(os.Stdout)

	logging.LogKV(logging.LevelInfo, "catalog admin service starting", logging.Fields{
		"git_sha":    os.Getenv("GIT_SHA"),
		"build_time": os.Getenv("BUILD_TIME"),
	})

	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.Load()
	startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	a, err := app.New(startCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	defer a.Close()

	a.StartCleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.LogKV(logging.LevelInfo, "starting server", logging.Fields{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.LogKV(logging.LevelInfo, "shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.LogKV(logging.LevelError, "server shutdown failed", logging.Fields{"error": err})
	}
}
