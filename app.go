package main

import (
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	ginGzip "github.com/gin-contrib/gzip"

	"flashcards/internal/config"
	"flashcards/internal/flashcard"
)

// App holds the server's shared state.
type App struct {
	Config       *config.Config
	Dictionary   flashcard.Lookuper
	Clock        clockwork.Clock
	IsProduction bool
	StartTime    time.Time

	Sessions     map[string]*Session
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*clientLimiter
	LimiterMutex sync.Mutex
}

// NewApp creates an App that looks definitions up with dict.
func NewApp(cfg *config.Config, dict flashcard.Lookuper, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		Config:       cfg,
		Dictionary:   dict,
		Clock:        clock,
		IsProduction: cfg.IsProduction(),
		StartTime:    clock.Now(),
		Sessions:     make(map[string]*Session),
		LimiterMap:   make(map[string]*clientLimiter),
	}
}

// setupRouter wires middleware and routes. templateGlob and staticDir
// point at either the source tree or the minified dist/ copy.
func (app *App) setupRouter(templateGlob, staticDir string) *gin.Engine {
	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(c, app.IsProduction, app.Config.Server.StaticCacheAge)
	})

	router.SetFuncMap(template.FuncMap{
		"join": strings.Join,
		"inc":  func(i int) int { return i + 1 },
	})
	router.LoadHTMLGlob(templateGlob)
	if staticDir != "" {
		router.Static("/static", staticDir)
	}

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteCard, app.cardHandler)
	router.GET(RouteBanner, app.bannerHandler)
	router.POST(RouteWords, app.rateLimitMiddleware(), app.submitWordHandler)
	router.POST(RouteNext, app.rateLimitMiddleware(), app.nextHandler)
	router.POST(RouteFlip, app.rateLimitMiddleware(), app.flipHandler)
	router.POST(RouteUpload, app.rateLimitMiddleware(), app.uploadHandler)

	api := router.Group("/api")
	api.GET("/state", app.apiStateHandler)
	api.POST("/words", app.rateLimitMiddleware(), app.apiSubmitWordHandler)
	api.POST("/next", app.rateLimitMiddleware(), app.apiNextHandler)
	api.POST("/flip", app.rateLimitMiddleware(), app.apiFlipHandler)
	api.POST("/upload", app.rateLimitMiddleware(), app.apiUploadHandler)

	router.GET(RouteHealthz, app.healthzHandler)

	return router
}
