package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"flashcards/internal/config"
	"flashcards/internal/dictionary"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logFatal("Failed to load config: %v", err)
	}
	logger := newLogger(cfg.Log)

	app := NewApp(cfg, dictionary.NewClient(cfg.Dictionary.BaseURL, cfg.Dictionary.Timeout, logger), nil)
	logInfo("Starting Flashcards in %s mode", map[bool]string{true: "production", false: "development"}[app.IsProduction])

	if app.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var router *gin.Engine
	if app.IsProduction && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		router = app.setupRouter("dist/templates/*.html", "./dist/static")
	} else {
		logInfo("Serving development assets from source directories")
		router = app.setupRouter("templates/*.html", "./static")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.runSessionJanitor(ctx)

	startServer(ctx, router, cfg.Server)
}

func startServer(ctx context.Context, router *gin.Engine, cfg config.ServerConfig) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", cfg.Port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}

func applyCacheHeaders(c *gin.Context, production bool, staticAge time.Duration) {
	if production && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(staticAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}
