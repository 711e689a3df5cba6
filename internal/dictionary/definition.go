package dictionary

// Definition is the result of looking up a word.
type Definition struct {
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	Meanings []Meaning `json:"meanings"`
}

// Meaning is one part-of-speech sense with its ordered definition texts.
type Meaning struct {
	PartOfSpeech string  `json:"partOfSpeech"`
	Definitions  []Sense `json:"definitions"`
}

// Sense is a single definition string plus the optional extras the service
// attaches to it.
type Sense struct {
	Text     string   `json:"text"`
	Example  string   `json:"example,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// Texts returns the bare definition strings of m in order.
func (m Meaning) Texts() []string {
	out := make([]string, len(m.Definitions))
	for i, d := range m.Definitions {
		out[i] = d.Text
	}
	return out
}
