package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"flashcards/internal/config"
	"flashcards/internal/dictionary"
	"flashcards/internal/flashcard"
)

const catEntry = `[{"word":"cat","phonetic":"/kæt/","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"A small domesticated feline.","synonyms":["kitty"]}]}]}]`

const missBody = `{"title":"No Definitions Found","message":"Sorry pal, we couldn't find definitions for the word you were looking for.","resolution":"You can try the search again at later time or head to the web instead."}`

// newDictionaryServer serves cat and answers every other word with a miss.
func newDictionaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.TrimPrefix(r.URL.Path, "/") == "cat" {
			w.Write([]byte(catEntry))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(missBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(dictURL string) *config.Config {
	return &config.Config{
		Session:    config.SessionConfig{Timeout: time.Hour, CookieMaxAge: time.Hour, SweepEvery: time.Minute},
		RateLimit:  config.RateLimitConfig{RPS: 100, Burst: 100},
		Dictionary: config.DictionaryConfig{BaseURL: dictURL, Timeout: 2 * time.Second},
		Flashcard:  config.FlashcardConfig{SelectWait: 2 * time.Second, BannerDuration: 3 * time.Second, MaxUploadBytes: 1 << 20},
		Log:        config.LogConfig{Level: "error"},
	}
}

// setupTestRouter creates a test router with all routes backed by a fake dictionary.
func setupTestRouter(t *testing.T) (*gin.Engine, *App) {
	t.Helper()
	return setupTestRouterWithClock(t, nil)
}

func setupTestRouterWithClock(t *testing.T, clock clockwork.Clock) (*gin.Engine, *App) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := newDictionaryServer(t)
	cfg := testConfig(srv.URL)
	app := NewApp(cfg, dictionary.NewClient(cfg.Dictionary.BaseURL, cfg.Dictionary.Timeout, nil), clock)
	return app.setupRouter("templates/*.html", "./static"), app
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.t.Helper()
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName {
			cl.cookie = ck
		}
	}
	return w
}

func (cl *client) postForm(path string, form string, htmx bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return cl.do(req)
}

func (cl *client) postJSON(path string, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return cl.do(req)
}

func (cl *client) get(path string, htmx bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return cl.do(req)
}

func (cl *client) upload(path, filename, content string) *httptest.ResponseRecorder {
	return cl.uploadWith(path, filename, content, false)
}

func (cl *client) uploadWith(path, filename, content string, htmx bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile(UploadField, filename)
		if err != nil {
			cl.t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	req, _ := http.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return cl.do(req)
}

func (cl *client) state() flashcard.View {
	cl.t.Helper()
	req, _ := http.NewRequest("GET", RouteAPIState, nil)
	w := cl.do(req)
	if w.Code != http.StatusOK {
		cl.t.Fatalf("GET /api/state returned status %d", w.Code)
	}
	return decodeView(cl.t, w)
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) flashcard.View {
	t.Helper()
	var v flashcard.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v (body %s)", err, w.Body.String())
	}
	return v
}

// TestHomeHandler checks the home page renders and starts a session
func TestHomeHandler(t *testing.T) {
	router, app := setupTestRouter(t)
	cl := &client{t: t, router: router}
	req, _ := http.NewRequest("GET", "/", nil)
	w := cl.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / returned status %d, want 200", w.Code)
	}
	if cl.cookie == nil {
		t.Fatal("expected a session cookie")
	}
	if !strings.Contains(w.Body.String(), flashcard.PlaceholderText) {
		t.Errorf("expected placeholder text on an empty session")
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if app.sessionCount() != 1 {
		t.Errorf("sessionCount = %d, want 1", app.sessionCount())
	}
}

// TestCardHandler checks the card fragment renders
func TestCardHandler(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}
	req, _ := http.NewRequest("GET", RouteCard, nil)
	w := cl.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /card returned status %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "<html") {
		t.Errorf("card fragment should not contain the full page")
	}
}

// TestSubmitWordHandler checks valid and invalid submissions over the form route
func TestSubmitWordHandler(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	w := cl.postForm(RouteWords, "word=Hello+World", true)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /words returned status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Hello World") {
		t.Errorf("expected the new word in the word list")
	}

	w = cl.postForm(RouteWords, "word=123", true)
	if !strings.Contains(w.Body.String(), flashcard.ReasonNotAlpha) {
		t.Errorf("expected validation message, got %s", w.Body.String())
	}

	w = cl.postForm(RouteWords, "word=++", false)
	if !strings.Contains(w.Body.String(), flashcard.ReasonEmpty) {
		t.Errorf("expected empty-word message on full page")
	}
	if !strings.Contains(w.Body.String(), "<html") {
		t.Errorf("non-htmx submit should render the full page")
	}

	if got := cl.state().Words; len(got) != 1 || got[0] != "Hello World" {
		t.Errorf("words = %v, want [Hello World]", got)
	}
}

// TestAPISubmitWord checks JSON submissions including non-string values
func TestAPISubmitWord(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	cases := []struct {
		body   string
		status int
		errMsg string
	}{
		{`{"word":"cat"}`, http.StatusCreated, ""},
		{`{"word":123}`, http.StatusUnprocessableEntity, flashcard.ReasonNotString},
		{`{"word":null}`, http.StatusUnprocessableEntity, flashcard.ReasonNotString},
		{`{}`, http.StatusUnprocessableEntity, flashcard.ReasonNotString},
		{`{"word":"  "}`, http.StatusUnprocessableEntity, flashcard.ReasonEmpty},
		{`{"word":"c4t"}`, http.StatusUnprocessableEntity, flashcard.ReasonNotAlpha},
		{`not json`, http.StatusBadRequest, ErrorBadRequestBody},
	}
	for _, tc := range cases {
		w := cl.postJSON(RouteAPIWords, tc.body)
		if w.Code != tc.status {
			t.Errorf("POST /api/words %s returned %d, want %d", tc.body, w.Code, tc.status)
			continue
		}
		if tc.errMsg == "" {
			continue
		}
		var resp errorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if resp.Error != tc.errMsg {
			t.Errorf("POST /api/words %s error = %q, want %q", tc.body, resp.Error, tc.errMsg)
		}
	}

	if got := cl.state().Words; len(got) != 1 || got[0] != "cat" {
		t.Errorf("words = %v, want [cat]", got)
	}
}

// TestAPINext_EmptyList checks that selecting from an empty list changes nothing
func TestAPINext_EmptyList(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	req, _ := http.NewRequest("POST", RouteAPINext, nil)
	v := decodeView(t, cl.do(req))
	if v.Panel != flashcard.PanelPlaceholder {
		t.Errorf("panel = %q, want placeholder", v.Panel)
	}
	if v.CanSelect {
		t.Errorf("CanSelect should be false with no words")
	}
}

// TestAPINext_LoadedAndFlip checks a successful lookup and both card faces
func TestAPINext_LoadedAndFlip(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}
	cl.postJSON(RouteAPIWords, `{"word":"cat"}`)

	req, _ := http.NewRequest("POST", RouteAPINext, nil)
	v := decodeView(t, cl.do(req))
	if v.Panel != flashcard.PanelCard || v.Word != "cat" {
		t.Fatalf("view = %+v, want card for cat", v)
	}
	if !v.FacingWord || len(v.Meanings) != 0 {
		t.Errorf("new selection should face the word without meanings")
	}

	req, _ = http.NewRequest("POST", RouteAPIFlip, nil)
	v = decodeView(t, cl.do(req))
	if v.FacingWord {
		t.Errorf("flip should show the definition face")
	}
	if len(v.Meanings) != 1 || v.Meanings[0].PartOfSpeech != "noun" {
		t.Errorf("meanings = %+v, want one noun sense", v.Meanings)
	}

	w := cl.postForm(RouteNext, "", true)
	if !strings.Contains(w.Body.String(), "cat") {
		t.Errorf("card fragment should show the word")
	}
	w = cl.postForm(RouteFlip, "", true)
	body := w.Body.String()
	if !strings.Contains(body, "A small domesticated feline.") || !strings.Contains(body, "kitty") {
		t.Errorf("definition face should list definition and synonyms, got %s", body)
	}
}

// TestAPINext_Miss checks the lookup miss message
func TestAPINext_Miss(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}
	cl.postJSON(RouteAPIWords, `{"word":"xyzzynotaword"}`)

	req, _ := http.NewRequest("POST", RouteAPINext, nil)
	v := decodeView(t, cl.do(req))
	if v.Panel != flashcard.PanelError {
		t.Fatalf("panel = %q, want error", v.Panel)
	}
	if v.Error != "No definition found for xyzzynotaword!" {
		t.Errorf("error = %q", v.Error)
	}
}

// TestAPIUpload checks a newline-delimited import appends every line and selects a word
func TestAPIUpload(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	w := cl.upload(RouteAPIUpload, "words.txt", "alpha\nbeta\ngamma")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/upload returned status %d: %s", w.Code, w.Body.String())
	}
	v := decodeView(t, w)
	want := []string{"alpha", "beta", "gamma"}
	if strings.Join(v.Words, ",") != strings.Join(want, ",") {
		t.Errorf("words = %v, want %v", v.Words, want)
	}
	if v.Banner != flashcard.BannerSuccess {
		t.Errorf("banner = %q, want success", v.Banner)
	}
	if v.Panel != flashcard.PanelError {
		t.Errorf("panel = %q, want error (fake dictionary only knows cat)", v.Panel)
	}
}

// TestAPIUpload_MissingFile checks that a failed upload shows the failure banner
func TestAPIUpload_MissingFile(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	w := cl.upload(RouteAPIUpload, "", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("POST /api/upload without file returned %d, want 422", w.Code)
	}
	v := cl.state()
	if v.Banner != flashcard.BannerFailure {
		t.Errorf("banner = %q, want failure", v.Banner)
	}
	if len(v.Words) != 0 {
		t.Errorf("words = %v, want none", v.Words)
	}
}

// TestUploadHandler checks the form upload renders the success banner
func TestUploadHandler(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	w := cl.upload(RouteUpload, "words.json", `["cat"]`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /upload returned status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), flashcard.UploadSuccessText) {
		t.Errorf("expected success banner")
	}
}

// TestUploadHandler_MissingFile checks a failed form upload still renders the page with the failure banner
func TestUploadHandler_MissingFile(t *testing.T) {
	router, _ := setupTestRouter(t)
	cl := &client{t: t, router: router}

	w := cl.uploadWith(RouteUpload, "", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /upload without file returned %d, want 200 so htmx swaps it in", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, flashcard.UploadFailureText) {
		t.Errorf("expected failure banner, got %s", body)
	}
	if !strings.Contains(body, `hx-get="/banner"`) {
		t.Errorf("failure banner should schedule its own refresh")
	}
}

// TestUploadBannerClears checks the rendered banner schedules a refresh and
// that the refreshed banner is empty once the display time has passed
func TestUploadBannerClears(t *testing.T) {
	clock := clockwork.NewFakeClock()
	router, _ := setupTestRouterWithClock(t, clock)
	cl := &client{t: t, router: router}

	w := cl.uploadWith(RouteUpload, "words.txt", "cat", true)
	body := w.Body.String()
	if !strings.Contains(body, flashcard.UploadSuccessText) {
		t.Fatalf("expected success banner, got %s", body)
	}
	if !strings.Contains(body, `hx-get="/banner"`) || !strings.Contains(body, `hx-trigger="load delay:3000ms"`) {
		t.Errorf("banner should refresh itself after 3000ms, got %s", body)
	}

	w = cl.get(RouteBanner, true)
	if !strings.Contains(w.Body.String(), flashcard.UploadSuccessText) {
		t.Errorf("banner should still show before the display time passes")
	}

	clock.Advance(3 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = cl.get(RouteBanner, true)
		if !strings.Contains(w.Body.String(), flashcard.UploadSuccessText) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("banner still shown after display time: %s", w.Body.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if strings.Contains(w.Body.String(), "hx-get") {
		t.Errorf("cleared banner should stop polling, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `id="banner"`) {
		t.Errorf("cleared banner should keep its placeholder element")
	}
}

func TestHTMXDelay(t *testing.T) {
	if got := htmxDelay(1500 * time.Millisecond); got != "1500ms" {
		t.Errorf("htmxDelay(1.5s) = %q, want 1500ms", got)
	}
	if got := htmxDelay(0); got != "3000ms" {
		t.Errorf("htmxDelay(0) = %q, want 3000ms", got)
	}
}

// TestHealthzHandlerFields checks /healthz for required fields
func TestHealthzHandlerFields(t *testing.T) {
	router, _ := setupTestRouter(t)
	req, _ := http.NewRequest("GET", RouteHealthz, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned status %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	for _, field := range []string{"status", "env", "sessions", "dictionary", "uptime", "timestamp"} {
		if _, ok := body[field]; !ok {
			t.Errorf("healthz missing field %q", field)
		}
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Errorf("expected X-Request-Id header")
	}
}

// TestRateLimitMiddleware checks rate limiting blocks excessive requests
func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig("http://127.0.0.1:0")
	cfg.RateLimit = config.RateLimitConfig{RPS: 5, Burst: 10}
	app := NewApp(cfg, nil, nil)

	router := gin.New()
	router.Use(app.rateLimitMiddleware())
	router.GET("/limited", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req, _ := http.NewRequest("GET", "/limited", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	// First 10 requests should succeed
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	// 11th request should be rate limited
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("11th request: expected 429 Too Many Requests, got %d", w.Code)
	}
	if w.Header().Get("HX-Trigger") != triggerLimit {
		t.Errorf("expected HX-Trigger %q", triggerLimit)
	}
}

// TestSweepSessions checks idle sessions are evicted and active ones kept
func TestSweepSessions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	app := NewApp(testConfig("http://127.0.0.1:0"), nil, clock)

	app.Sessions["idle-session-0001"] = &Session{
		Controller:     flashcard.NewController(nil, flashcard.Options{Clock: clock}),
		LastAccessTime: clock.Now(),
	}
	clock.Advance(45 * time.Minute)
	app.Sessions["active-session-01"] = &Session{
		Controller:     flashcard.NewController(nil, flashcard.Options{Clock: clock}),
		LastAccessTime: clock.Now(),
	}
	clock.Advance(30 * time.Minute)

	if removed := app.sweepSessions(); removed != 1 {
		t.Errorf("sweepSessions removed %d, want 1", removed)
	}
	if _, ok := app.Sessions["active-session-01"]; !ok {
		t.Errorf("active session should survive")
	}
	if _, ok := app.Sessions["idle-session-0001"]; ok {
		t.Errorf("idle session should be removed")
	}
}

// TestSweepLimiters checks idle client buckets are dropped and busy ones kept
func TestSweepLimiters(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := testConfig("http://127.0.0.1:0")
	cfg.RateLimit = config.RateLimitConfig{RPS: 5, Burst: 10}
	app := NewApp(cfg, nil, clock)

	app.limiterFor("10.0.0.1")
	clock.Advance(45 * time.Second)
	app.limiterFor("10.0.0.2")
	clock.Advance(30 * time.Second)

	if removed := app.sweepLimiters(); removed != 1 {
		t.Errorf("sweepLimiters removed %d, want 1", removed)
	}
	if _, ok := app.LimiterMap["10.0.0.2"]; !ok {
		t.Errorf("recently seen client should keep its limiter")
	}
	if _, ok := app.LimiterMap["10.0.0.1"]; ok {
		t.Errorf("idle client limiter should be removed")
	}
}

// TestSweepLimitersWaitsForRefill checks a bucket is kept until it could have refilled
func TestSweepLimitersWaitsForRefill(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := testConfig("http://127.0.0.1:0")
	cfg.Session.SweepEvery = time.Second
	cfg.RateLimit = config.RateLimitConfig{RPS: 1, Burst: 10}
	app := NewApp(cfg, nil, clock)

	app.limiterFor("10.0.0.1")
	clock.Advance(5 * time.Second)
	if removed := app.sweepLimiters(); removed != 0 {
		t.Errorf("sweepLimiters removed %d before refill, want 0", removed)
	}
	clock.Advance(6 * time.Second)
	if removed := app.sweepLimiters(); removed != 1 {
		t.Errorf("sweepLimiters removed %d after refill, want 1", removed)
	}
}
