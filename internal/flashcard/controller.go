package flashcard

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"flashcards/internal/dictionary"
)

const (
	DefaultBannerDuration = 3 * time.Second
	DefaultLookupTimeout  = 10 * time.Second
)

// Lookuper resolves a word to its definition. *dictionary.Client
// implements it.
type Lookuper interface {
	Lookup(ctx context.Context, word string) (*dictionary.Definition, error)
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Clock          clockwork.Clock
	BannerDuration time.Duration
	LookupTimeout  time.Duration
	MaxImportBytes int64
	// Intn returns a uniform value in [0, n). Defaults to crypto/rand.
	Intn   func(n int) int
	Logger *slog.Logger
}

// Controller owns one session's flashcard state and is the only thing that
// mutates it. All methods are safe for concurrent use.
type Controller struct {
	lookup Lookuper
	clock  clockwork.Clock
	opts   Options
	log    *slog.Logger

	mu         sync.Mutex
	words      WordStore
	selection  SelectionOutcome
	upload     UploadOutcome
	facingWord bool
	seq        uint64

	bannerGen   uint64
	bannerTimer clockwork.Timer
}

// NewController creates a Controller that resolves definitions with lookup.
func NewController(lookup Lookuper, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.BannerDuration <= 0 {
		opts.BannerDuration = DefaultBannerDuration
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		lookup:     lookup,
		clock:      opts.Clock,
		opts:       opts,
		log:        opts.Logger,
		facingWord: true,
	}
	if c.opts.Intn == nil {
		c.opts.Intn = c.cryptoIntn
	}
	return c
}

// SubmitWord validates input and appends the trimmed word on success.
// A failing verdict leaves the word list untouched and is returned as a
// *ValidationError.
func (c *Controller) SubmitWord(input any) error {
	if err := Validate(input); err != nil {
		return err
	}
	word := strings.TrimSpace(input.(string))

	c.mu.Lock()
	c.words.Append(word)
	n := c.words.Len()
	c.mu.Unlock()

	c.log.Debug("word added", slog.String("word", word), slog.Int("words", n))
	return nil
}

// SelectRandom picks a word uniformly at random and starts looking up its
// definition. The selection is Loading when SelectRandom returns and the
// returned channel is closed once this selection has resolved, whether or
// not its result was kept. With an empty word list nothing changes and the
// channel is already closed.
//
// A selection started later always wins: results of superseded lookups are
// discarded.
func (c *Controller) SelectRandom() <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	n := c.words.Len()
	if n == 0 {
		c.mu.Unlock()
		close(done)
		return done
	}
	word := c.words.At(c.opts.Intn(n))
	c.seq++
	id := c.seq
	c.selection = SelectionOutcome{State: SelectionLoading}
	c.facingWord = true
	c.mu.Unlock()

	c.log.Debug("selection started", slog.Uint64("seq", id), slog.String("word", word))

	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.LookupTimeout)
		defer cancel()
		def, err := c.lookup.Lookup(ctx, word)
		c.resolve(id, word, def, err)
	}()

	return done
}

func (c *Controller) resolve(id uint64, word string, def *dictionary.Definition, err error) {
	outcome := outcomeOf(word, def, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.seq {
		c.log.Debug("stale selection discarded", slog.Uint64("seq", id), slog.Uint64("latest", c.seq))
		return
	}
	c.selection = outcome
	c.log.Debug("selection resolved", slog.Uint64("seq", id), slog.String("state", outcome.State.String()))
}

func outcomeOf(word string, def *dictionary.Definition, err error) SelectionOutcome {
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		return SelectionOutcome{State: SelectionFailed, Message: dictionary.MissMessage(word)}
	case err != nil:
		return SelectionOutcome{State: SelectionFailed, Message: err.Error()}
	case def == nil:
		return SelectionOutcome{State: SelectionFailed, Message: dictionary.MissMessage(word)}
	}
	canonical := def.Word
	if canonical == "" {
		canonical = word
	}
	return SelectionOutcome{
		State:    SelectionLoaded,
		Word:     canonical,
		Phonetic: def.Phonetic,
		Meanings: def.Meanings,
	}
}

// ImportFile parses an uploaded word file and appends every entry without
// validation, then starts a selection over the updated list. The upload
// banner reflects the result. On failure the error is a *FileReadError, the
// word list is unchanged and the returned channel is already closed.
func (c *Controller) ImportFile(name string, r io.Reader) (<-chan struct{}, error) {
	words, err := ReadWordFile(name, r, c.opts.MaxImportBytes)
	if err != nil {
		c.setUpload(UploadFailed)
		c.log.Warn("word file rejected", slog.String("file", name), slog.String("error", err.Error()))
		done := make(chan struct{})
		close(done)
		return done, err
	}

	c.mu.Lock()
	c.words.AppendAll(words)
	n := c.words.Len()
	c.mu.Unlock()

	c.setUpload(UploadSucceeded)
	c.log.Info("word file imported", slog.String("file", name), slog.Int("added", len(words)), slog.Int("words", n))
	return c.SelectRandom(), nil
}

// RejectUpload records an upload that never produced readable content,
// such as a missing form file, and returns it as a *FileReadError.
func (c *Controller) RejectUpload(name string, err error) error {
	c.setUpload(UploadFailed)
	c.log.Warn("upload rejected", slog.String("file", name), slog.String("error", err.Error()))
	return &FileReadError{Name: name, Err: err}
}

// setUpload shows outcome on the banner and schedules its revert to idle,
// replacing any revert scheduled by an earlier upload.
func (c *Controller) setUpload(outcome UploadOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.bannerGen++
	gen := c.bannerGen
	c.upload = outcome
	c.bannerTimer = c.clock.AfterFunc(c.opts.BannerDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A timer that fired while being replaced must not clear the newer banner.
		if c.bannerGen != gen {
			return
		}
		c.upload = UploadIdle
		c.bannerTimer = nil
	})
}

// Flip toggles the card between its word and definition faces.
func (c *Controller) Flip() {
	c.mu.Lock()
	c.facingWord = !c.facingWord
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Words:      c.words.Words(),
		Selection:  c.selection,
		Upload:     c.upload,
		FacingWord: c.facingWord,
		Seq:        c.seq,
	}
}

// Close stops the pending banner timer, if any. Lookups already in flight
// finish on their own.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	c.bannerGen++
}

func (c *Controller) cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		c.log.Warn("random index failed, using first word", slog.String("error", err.Error()))
		return 0
	}
	return int(v.Int64())
}
