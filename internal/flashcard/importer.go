package flashcard

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// FileReadError reports an upload that could not be read or parsed. Only
// the fact of failure reaches the user.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read word file %q: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ReadWordFile reads at most limit bytes from r and parses them with
// ParseWordFile. A non-positive limit disables the cap.
func ReadWordFile(name string, r io.Reader, limit int64) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if limit > 0 {
		data, err = io.ReadAll(io.LimitReader(r, limit+1))
		if err == nil && int64(len(data)) > limit {
			err = fmt.Errorf("file exceeds %d bytes", limit)
		}
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, &FileReadError{Name: name, Err: err}
	}
	return ParseWordFile(name, data)
}

// ParseWordFile splits an uploaded word file into words. The extension of
// name selects the format:
//
//	.json  a JSON array of strings
//	.csv   comma separated cells, any number of rows, cells trimmed
//	other  one word per line
//
// Words are not validated.
func ParseWordFile(name string, data []byte) ([]string, error) {
	var (
		words []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		words, err = parseJSONWords(data)
	case ".csv":
		words, err = parseCSVWords(data)
	default:
		words = splitLines(string(data))
	}
	if err != nil {
		return nil, &FileReadError{Name: name, Err: err}
	}
	return words, nil
}

// splitLines splits on '\n'. A carriage return ending a line is dropped and
// a single trailing newline does not yield an empty last word.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" || s == "\r" {
		return []string{}
	}
	return lo.Map(strings.Split(s, "\n"), func(line string, _ int) string {
		return strings.TrimSuffix(line, "\r")
	})
}

func parseJSONWords(data []byte) ([]string, error) {
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("expected a JSON array of strings: %w", err)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

func parseCSVWords(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	cells := lo.Map(lo.Flatten(records), func(cell string, _ int) string {
		return strings.TrimSpace(cell)
	})
	return lo.Compact(cells), nil
}
