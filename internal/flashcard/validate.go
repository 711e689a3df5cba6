package flashcard

import "strings"

// Validation failure reasons, shown verbatim under the word input.
const (
	ReasonNotString = "New word must be a string"
	ReasonEmpty     = "New word cannot be empty"
	ReasonNotAlpha  = "Must be a word containing only alphabetic characters"
)

// ValidationError rejects a single-word submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks a candidate word. input is typed any because submissions
// can arrive as arbitrary JSON values; only strings can pass. Rules are
// applied in order and the first failing one is reported.
func Validate(input any) error {
	s, ok := input.(string)
	if !ok {
		return &ValidationError{Reason: ReasonNotString}
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return &ValidationError{Reason: ReasonEmpty}
	}
	if !isAlphaOrSpace(trimmed) {
		return &ValidationError{Reason: ReasonNotAlpha}
	}
	return nil
}

func isAlphaOrSpace(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == ' ':
		default:
			return false
		}
	}
	return true
}
