package flashcard

import "flashcards/internal/dictionary"

// Panel is the main area of the flashcard.
type Panel string

const (
	PanelLoading     Panel = "loading"
	PanelError       Panel = "error"
	PanelCard        Panel = "card"
	PanelPlaceholder Panel = "placeholder"
)

// Banner is the transient upload notice.
type Banner string

const (
	BannerNone    Banner = "none"
	BannerSuccess Banner = "success"
	BannerFailure Banner = "failure"
)

const (
	PlaceholderText   = "Add words to start using flashcards!"
	UploadSuccessText = "Words uploaded successfully!"
	UploadFailureText = "Could not read the uploaded file."
	LoadingText       = "Loading..."
	ErrorHeaderText   = "Error"
)

// View describes what to render. It is derived from a Snapshot by Present
// and carries no state of its own.
type View struct {
	Panel      Panel                `json:"panel"`
	Word       string               `json:"word,omitempty"`
	Phonetic   string               `json:"phonetic,omitempty"`
	Meanings   []dictionary.Meaning `json:"meanings,omitempty"`
	FacingWord bool                 `json:"facingWord"`
	Error      string               `json:"error,omitempty"`
	Banner     Banner               `json:"banner"`
	BannerText string               `json:"bannerText,omitempty"`
	Words      []string             `json:"words"`
	CanSelect  bool                 `json:"canSelect"`
}

// ShowDefinitions reports whether the definition face is up.
func (v View) ShowDefinitions() bool {
	return v.Panel == PanelCard && !v.FacingWord
}

// Present maps a Snapshot to a View.
func Present(s Snapshot) View {
	v := View{
		FacingWord: s.FacingWord,
		Words:      s.Words,
		CanSelect:  len(s.Words) > 0,
	}
	if v.Words == nil {
		v.Words = []string{}
	}

	switch s.Selection.State {
	case SelectionLoading:
		v.Panel = PanelLoading
	case SelectionFailed:
		v.Panel = PanelError
		v.Error = s.Selection.Message
	case SelectionLoaded:
		v.Panel = PanelCard
		v.Word = s.Selection.Word
		v.Phonetic = s.Selection.Phonetic
		if !s.FacingWord {
			v.Meanings = s.Selection.Meanings
		}
	default:
		v.Panel = PanelPlaceholder
		v.Word = PlaceholderText
	}

	switch s.Upload {
	case UploadSucceeded:
		v.Banner, v.BannerText = BannerSuccess, UploadSuccessText
	case UploadFailed:
		v.Banner, v.BannerText = BannerFailure, UploadFailureText
	default:
		v.Banner = BannerNone
	}

	return v
}
