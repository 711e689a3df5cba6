package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
	sessionIDMinLen   = 10
)

// Route constants
const (
	RouteHome      = "/"
	RouteCard      = "/card"
	RouteBanner    = "/banner"
	RouteWords     = "/words"
	RouteNext      = "/next"
	RouteFlip      = "/flip"
	RouteUpload    = "/upload"
	RouteHealthz   = "/healthz"
	RouteAPIState  = "/api/state"
	RouteAPIWords  = "/api/words"
	RouteAPINext   = "/api/next"
	RouteAPIFlip   = "/api/flip"
	RouteAPIUpload = "/api/upload"
)

// Page constants
const (
	PageTitle    = "Flashcards"
	UploadField  = "file"
	WordField    = "word"
	htmxHeader   = "HX-Request"
	triggerLimit = "rate-limit-exceeded"
)

// Error message constants
const (
	ErrorTooManyRequests = "Too many requests. Please slow down."
	ErrorBadRequestBody  = "Request body must be a JSON object."
)

// Request ID header and context key
const requestIDHeader = "X-Request-Id"

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
