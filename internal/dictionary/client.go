package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DefaultBaseURL is the en_US entries endpoint of the free dictionary API.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en_US"

const maxBodyBytes = 4 << 20

// Client looks words up in the free dictionary API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for baseURL. An empty baseURL selects
// DefaultBaseURL; a non-positive timeout leaves the http.Client unbounded
// and relies on the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		log:        logger.With("adapter", "dictionary"),
	}
}

// Lookup fetches the definition of word, keyed exactly as given.
//
// It returns ErrNotFound when the service answers with its "not found"
// object, and a *TransportError for every network, status or decoding
// failure. Exactly one request is sent; there is no retry.
func (c *Client) Lookup(ctx context.Context, word string) (*Definition, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(word)

	c.log.DebugContext(ctx, "dictionary request", slog.String("word", word))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "dictionary request failed", slog.String("word", word), slog.String("error", err.Error()))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	def, err := decodeResponse(resp.StatusCode, body)
	switch {
	case errors.Is(err, ErrNotFound):
		c.log.DebugContext(ctx, "dictionary miss", slog.String("word", word), slog.Int("status", resp.StatusCode))
	case err != nil:
		c.log.WarnContext(ctx, "dictionary response rejected",
			slog.String("word", word),
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
	default:
		c.log.DebugContext(ctx, "dictionary response",
			slog.String("word", word),
			slog.Int("status", resp.StatusCode),
			slog.Int("meanings", len(def.Meanings)),
		)
	}
	return def, err
}

// decodeResponse interprets a response body. The shape of the body decides
// the outcome: an array is a hit, an object is the service's miss notice.
func decodeResponse(status int, body []byte) (*Definition, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, transportErrorf("unexpected status %d with empty body", status)
	}

	switch trimmed[0] {
	case '[':
		var entries []apiEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, &TransportError{Err: err}
		}
		if len(entries) == 0 {
			return nil, ErrNotFound
		}
		return mapEntries(entries), nil
	case '{':
		var miss apiMiss
		if err := json.Unmarshal(trimmed, &miss); err != nil {
			return nil, &TransportError{Err: err}
		}
		if miss.Message != "" || miss.Title != "" || status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, transportErrorf("unexpected status %d", status)
	default:
		return nil, transportErrorf("unexpected status %d", status)
	}
}

// mapEntries merges all entries into one Definition. The first entry
// provides the canonical word form; meanings keep their response order.
func mapEntries(entries []apiEntry) *Definition {
	def := &Definition{
		Word:     entries[0].Word,
		Meanings: []Meaning{},
	}

	for _, entry := range entries {
		if def.Phonetic == "" {
			def.Phonetic = phoneticOf(entry)
		}
		for _, m := range entry.Meanings {
			def.Meanings = append(def.Meanings, Meaning{
				PartOfSpeech: m.PartOfSpeech,
				Definitions: lo.Map(m.Definitions, func(d apiDefinition, _ int) Sense {
					return Sense{
						Text:     d.Definition,
						Example:  d.Example,
						Synonyms: lo.Compact(d.Synonyms),
					}
				}),
			})
		}
	}

	return def
}

func phoneticOf(entry apiEntry) string {
	if entry.Phonetic != "" {
		return entry.Phonetic
	}
	ph, ok := lo.Find(entry.Phonetics, func(p apiPhonetic) bool { return p.Text != "" })
	if !ok {
		return ""
	}
	return ph.Text
}
