package flashcard

import "flashcards/internal/dictionary"

// SelectionState tags the active SelectionOutcome variant.
type SelectionState int

const (
	// SelectionIdle means no selection has been made yet in this session.
	SelectionIdle SelectionState = iota
	SelectionLoading
	SelectionFailed
	SelectionLoaded
)

func (s SelectionState) String() string {
	switch s {
	case SelectionLoading:
		return "loading"
	case SelectionFailed:
		return "failed"
	case SelectionLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// SelectionOutcome is the result of the latest selection. Message is set
// only when Failed; Word, Phonetic and Meanings only when Loaded.
type SelectionOutcome struct {
	State    SelectionState
	Message  string
	Word     string
	Phonetic string
	Meanings []dictionary.Meaning
}

// UploadOutcome is the transient state of the upload banner.
type UploadOutcome int

const (
	UploadIdle UploadOutcome = iota
	UploadSucceeded
	UploadFailed
)

func (u UploadOutcome) String() string {
	switch u {
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a read-only copy of a Controller's state.
type Snapshot struct {
	Words      []string
	Selection  SelectionOutcome
	Upload     UploadOutcome
	FacingWord bool
	// Seq is the id of the latest selection issued, zero if none.
	Seq uint64
}
