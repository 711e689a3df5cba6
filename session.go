package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"flashcards/internal/flashcard"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < sessionIDMinLen {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.Config.Session.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfoCtx(c.Request.Context(), "Created new session: %s", sessionID)
	}
	return sessionID
}

// getController returns the session's controller, creating the session if needed.
func (app *App) getController(c *gin.Context) *flashcard.Controller {
	sessionID := app.getOrCreateSession(c)
	now := app.Clock.Now()

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if sess, ok := app.Sessions[sessionID]; ok {
		sess.LastAccessTime = now
		return sess.Controller
	}

	ctrl := flashcard.NewController(app.Dictionary, flashcard.Options{
		Clock:          app.Clock,
		BannerDuration: app.Config.Flashcard.BannerDuration,
		LookupTimeout:  app.Config.Dictionary.Timeout,
		MaxImportBytes: app.Config.Flashcard.MaxUploadBytes,
	})
	app.Sessions[sessionID] = &Session{Controller: ctrl, LastAccessTime: now}
	logInfoCtx(c.Request.Context(), "Created flashcard state for session: %s", sessionID)
	return ctrl
}

// sweepSessions drops sessions idle for longer than the session timeout and
// returns how many were removed.
func (app *App) sweepSessions() int {
	cutoff := app.Clock.Now().Add(-app.Config.Session.Timeout)

	app.SessionMutex.Lock()
	expired := lo.PickBy(app.Sessions, func(_ string, sess *Session) bool {
		return sess.LastAccessTime.Before(cutoff)
	})
	for id, sess := range expired {
		sess.Controller.Close()
		delete(app.Sessions, id)
	}
	remaining := len(app.Sessions)
	app.SessionMutex.Unlock()

	if len(expired) > 0 {
		logInfo("Session cleanup completed: removed %d sessions, %d active", len(expired), remaining)
	}
	return len(expired)
}

// runSessionJanitor sweeps idle sessions and rate limiters until ctx is done.
func (app *App) runSessionJanitor(ctx context.Context) {
	ticker := app.Clock.NewTicker(app.Config.Session.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			app.sweepSessions()
			if n := app.sweepLimiters(); n > 0 {
				logInfo("Rate limiter cleanup removed %d idle clients", n)
			}
		}
	}
}

func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}
