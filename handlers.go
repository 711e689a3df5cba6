package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flashcards/internal/flashcard"
)

// multipartOverhead is the body allowance on top of the file size cap for
// multipart boundaries and headers.
const multipartOverhead = 64 << 10

// homeHandler renders the flashcard page for the current session.
func (app *App) homeHandler(c *gin.Context) {
	ctrl := app.getController(c)
	c.HTML(http.StatusOK, "index.html", app.pageData(present(ctrl), nil))
}

// cardHandler renders the flashcard alone; the page polls it while a
// definition is loading.
func (app *App) cardHandler(c *gin.Context) {
	ctrl := app.getController(c)
	c.HTML(http.StatusOK, "card", app.pageData(present(ctrl), nil))
}

// bannerHandler renders the upload banner alone. A visible banner polls it
// once its display time has passed.
func (app *App) bannerHandler(c *gin.Context) {
	ctrl := app.getController(c)
	c.HTML(http.StatusOK, "banner", app.pageData(present(ctrl), nil))
}

// submitWordHandler adds the posted word when it passes validation and
// shows the validation message under the input otherwise.
func (app *App) submitWordHandler(c *gin.Context) {
	ctrl := app.getController(c)
	word := c.PostForm(WordField)

	extra := gin.H{}
	var verr *flashcard.ValidationError
	if err := ctrl.SubmitWord(word); errors.As(err, &verr) {
		logInfoCtx(c.Request.Context(), "Rejected word %q: %s", word, verr.Reason)
		extra["wordError"] = verr.Reason
		extra["wordInput"] = word
	}
	app.renderView(c, ctrl, extra)
}

// nextHandler selects a random word and renders once its definition has
// resolved or the wait budget is spent.
func (app *App) nextHandler(c *gin.Context) {
	ctrl := app.getController(c)
	app.awaitSelection(c.Request.Context(), ctrl.SelectRandom())
	app.renderView(c, ctrl, nil)
}

// flipHandler turns the card over.
func (app *App) flipHandler(c *gin.Context) {
	ctrl := app.getController(c)
	ctrl.Flip()
	app.renderView(c, ctrl, nil)
}

// uploadHandler imports a word file and selects a word from the result.
func (app *App) uploadHandler(c *gin.Context) {
	ctrl := app.getController(c)
	// A failed import is shown by the failure banner; htmx only swaps 2xx
	// responses, so the page keeps status 200.
	_ = app.importUpload(c, ctrl)
	app.renderView(c, ctrl, nil)
}

// apiStateHandler returns the current view as JSON.
func (app *App) apiStateHandler(c *gin.Context) {
	ctrl := app.getController(c)
	c.JSON(http.StatusOK, present(ctrl))
}

// apiSubmitWordHandler adds a word from a JSON body.
func (app *App) apiSubmitWordHandler(c *gin.Context) {
	ctrl := app.getController(c)

	var req submitWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logWarnCtx(c.Request.Context(), "Malformed word request: %v", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: ErrorBadRequestBody})
		return
	}

	var verr *flashcard.ValidationError
	if err := ctrl.SubmitWord(req.Word); errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: verr.Reason})
		return
	}
	c.JSON(http.StatusCreated, present(ctrl))
}

// apiNextHandler selects a random word and returns the resulting view.
func (app *App) apiNextHandler(c *gin.Context) {
	ctrl := app.getController(c)
	app.awaitSelection(c.Request.Context(), ctrl.SelectRandom())
	c.JSON(http.StatusOK, present(ctrl))
}

// apiFlipHandler turns the card over and returns the resulting view.
func (app *App) apiFlipHandler(c *gin.Context) {
	ctrl := app.getController(c)
	ctrl.Flip()
	c.JSON(http.StatusOK, present(ctrl))
}

// apiUploadHandler imports a word file from a multipart body.
func (app *App) apiUploadHandler(c *gin.Context) {
	ctrl := app.getController(c)
	if err := app.importUpload(c, ctrl); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: flashcard.UploadFailureText})
		return
	}
	c.JSON(http.StatusOK, present(ctrl))
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := app.Clock.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"env":        map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"sessions":   app.sessionCount(),
		"dictionary": app.Config.Dictionary.BaseURL,
		"uptime":     formatUptime(uptime),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// importUpload feeds the multipart file field to the controller and waits
// for the selection it starts.
func (app *App) importUpload(c *gin.Context, ctrl *flashcard.Controller) error {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, app.Config.Flashcard.MaxUploadBytes+multipartOverhead)

	fh, err := c.FormFile(UploadField)
	if err != nil {
		logWarnCtx(ctx, "Upload without readable file: %v", err)
		return ctrl.RejectUpload("", err)
	}
	f, err := fh.Open()
	if err != nil {
		return ctrl.RejectUpload(fh.Filename, err)
	}
	defer f.Close()

	done, err := ctrl.ImportFile(fh.Filename, f)
	if err != nil {
		logWarnCtx(ctx, "Upload %q rejected: %v", fh.Filename, err)
		return err
	}
	logInfoCtx(ctx, "Imported word file %q", fh.Filename)
	app.awaitSelection(ctx, done)
	return nil
}

// awaitSelection blocks until done is closed, the wait budget is spent or
// ctx ends. The selection keeps running in the background either way.
func (app *App) awaitSelection(ctx context.Context, done <-chan struct{}) {
	wait := app.Config.Flashcard.SelectWait
	if wait <= 0 {
		return
	}
	timer := app.Clock.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.Chan():
		logInfoCtx(ctx, "Definition still loading after %v", wait)
	case <-ctx.Done():
	}
}

// renderView renders the app fragment for htmx callers and the full page
// otherwise.
func (app *App) renderView(c *gin.Context, ctrl *flashcard.Controller, extra gin.H) {
	data := app.pageData(present(ctrl), extra)
	if isHTMX(c) {
		c.HTML(http.StatusOK, "app", data)
		return
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func present(ctrl *flashcard.Controller) flashcard.View {
	return flashcard.Present(ctrl.Snapshot())
}

func (app *App) pageData(view flashcard.View, extra gin.H) gin.H {
	data := gin.H{
		"title":       PageTitle,
		"view":        view,
		"bannerDelay": htmxDelay(app.Config.Flashcard.BannerDuration),
		"wordError":   "",
		"wordInput":   "",
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// htmxDelay formats d for an hx-trigger delay modifier.
func htmxDelay(d time.Duration) string {
	if d <= 0 {
		d = flashcard.DefaultBannerDuration
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
