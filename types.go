package main

import (
	"time"

	"golang.org/x/time/rate"

	"flashcards/internal/flashcard"
)

// Session is one browser's flashcard state.
type Session struct {
	Controller     *flashcard.Controller
	LastAccessTime time.Time
}

// clientLimiter is the token bucket of one client address.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// submitWordRequest is the JSON body of POST /api/words. Word is left
// untyped so that non-string values reach the validator.
type submitWordRequest struct {
	Word any `json:"word"`
}

// errorResponse is the JSON body of a rejected API call.
type errorResponse struct {
	Error string `json:"error"`
}
