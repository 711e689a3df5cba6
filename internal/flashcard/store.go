package flashcard

import "slices"

// WordStore is the ordered, append-only list of words for one session.
// It performs no validation and is not safe for concurrent use; the owning
// Controller serializes access.
type WordStore struct {
	words []string
}

// Append adds word to the end of the list.
func (s *WordStore) Append(word string) {
	s.words = append(s.words, word)
}

// AppendAll adds words to the end of the list, keeping their order.
func (s *WordStore) AppendAll(words []string) {
	s.words = append(s.words, words...)
}

// Len returns the number of stored words.
func (s *WordStore) Len() int { return len(s.words) }

// At returns the word at index i.
func (s *WordStore) At(i int) string { return s.words[i] }

// Words returns a copy of the list.
func (s *WordStore) Words() []string {
	if s.words == nil {
		return []string{}
	}
	return slices.Clone(s.words)
}
