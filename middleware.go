package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// limiterFor returns the token bucket for a client address, creating it on
// first use, and marks the client as seen.
func (app *App) limiterFor(addr string) *rate.Limiter {
	now := app.Clock.Now()

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	cl, ok := app.LimiterMap[addr]
	if !ok {
		if addr == "" {
			logWarn("Rate limiting a request with no client address")
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(app.limitEvery(), app.Config.RateLimit.Burst)}
		app.LimiterMap[addr] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (app *App) limitEvery() rate.Limit {
	rps := max(app.Config.RateLimit.RPS, 1)
	return rate.Limit(rps)
}

// sweepLimiters forgets clients idle for longer than one sweep interval, or
// longer than a full bucket refill when that is slower. Returns how many
// were removed.
func (app *App) sweepLimiters() int {
	idle := app.Config.Session.SweepEvery
	refill := time.Duration(float64(app.Config.RateLimit.Burst) / float64(app.limitEvery()) * float64(time.Second))
	idle = max(idle, refill)
	cutoff := app.Clock.Now().Add(-idle)

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	stale := lo.Keys(lo.PickBy(app.LimiterMap, func(_ string, cl *clientLimiter) bool {
		return cl.lastSeen.Before(cutoff)
	}))
	for _, addr := range stale {
		delete(app.LimiterMap, addr)
	}
	return len(stale)
}

// rateLimitMiddleware rejects requests from a client whose bucket is empty.
// htmx callers also get an HX-Trigger event so the page can react.
func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.ClientIP()
		if app.limiterFor(addr).Allow() {
			c.Next()
			return
		}
		if isHTMX(c) {
			c.Header("HX-Trigger", triggerLimit)
		}
		logWarnCtx(c.Request.Context(), "Rate limit exceeded for %s on %s", addr, c.FullPath())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: ErrorTooManyRequests})
	}
}

// requestIDMiddleware tags each request with the caller's X-Request-Id or a
// fresh uuid, echoes it back and stores it for request-scoped logging.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey, id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader(htmxHeader) == "true"
}
