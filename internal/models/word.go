package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultCategory is assigned to words uploaded without a category.
	DefaultCategory = "uncategorized"

	MinDifficulty = 1
	MaxDifficulty = 5
)

// VocabularyWord represents one flashcard of the corpus
type VocabularyWord struct {
	ID         string    `json:"id" db:"id"`
	Word       string    `json:"word" db:"word"`
	Meaning    string    `json:"meaning" db:"meaning"`
	Category   string    `json:"category" db:"category"`
	Example    *string   `json:"example,omitempty" db:"example"`
	Difficulty int       `json:"difficulty" db:"difficulty"`
	Position   int       `json:"-" db:"position"` // upload order, breaks ties between equal words
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Validate checks the invariants a stored word must satisfy
func (w *VocabularyWord) Validate() error {
	if strings.TrimSpace(w.Word) == "" {
		return Invalidf("word is required")
	}
	if strings.TrimSpace(w.Meaning) == "" {
		return Invalidf("meaning is required for %q", w.Word)
	}
	if w.Difficulty < MinDifficulty || w.Difficulty > MaxDifficulty {
		return Invalidf("difficulty of %q must be between %d and %d", w.Word, MinDifficulty, MaxDifficulty)
	}
	return nil
}

// UploadWord is one entry of an uploaded vocabulary file
type UploadWord struct {
	Word       string  `json:"word"`
	Meaning    string  `json:"meaning"`
	Category   *string `json:"category,omitempty"`
	Example    *string `json:"example,omitempty"`
	Difficulty *int    `json:"difficulty,omitempty"`

	// Line is the line of the imported file the entry came from, 0 for JSON bodies
	Line int `json:"-"`
}

// ToWord trims the entry and fills in defaults. row is the 1-based entry position; errors name
// the file line instead when the entry has one.
func (u UploadWord) ToWord(row int) (*VocabularyWord, error) {
	where := fmt.Sprintf("row %d", row)
	if u.Line > 0 {
		where = fmt.Sprintf("line %d", u.Line)
	}

	word := &VocabularyWord{
		Word:       strings.TrimSpace(u.Word),
		Meaning:    strings.TrimSpace(u.Meaning),
		Category:   DefaultCategory,
		Difficulty: MinDifficulty,
	}

	if word.Word == "" || word.Meaning == "" {
		return nil, Invalidf("%s: word and meaning are required", where)
	}
	if u.Category != nil {
		if c := strings.TrimSpace(*u.Category); c != "" {
			word.Category = c
		}
	}
	if u.Example != nil {
		if e := strings.TrimSpace(*u.Example); e != "" {
			word.Example = &e
		}
	}
	if u.Difficulty != nil {
		if *u.Difficulty < MinDifficulty || *u.Difficulty > MaxDifficulty {
			return nil, Invalidf("%s: difficulty must be between %d and %d", where, MinDifficulty, MaxDifficulty)
		}
		word.Difficulty = *u.Difficulty
	}

	return word, nil
}

// UploadRequest is the body of a vocabulary upload. Both {"words": [...]} and a bare array are accepted.
type UploadRequest struct {
	Words []UploadWord `json:"words"`
}

// UnmarshalJSON accepts the wrapped and the bare-array form
func (r *UploadRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.Words)
	}

	var wrapped struct {
		Words *[]UploadWord `json:"words"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	if wrapped.Words == nil {
		return Invalidf("words is required")
	}
	r.Words = *wrapped.Words
	return nil
}

// UploadResponse is returned after a successful full replace of the corpus
type UploadResponse struct {
	Count int               `json:"count"`
	Words []*VocabularyWord `json:"words"`
}

// DictionaryEntry represents a response from the dictionary API
type DictionaryEntry struct {
	Word      string     `json:"word"`
	Phonetic  string     `json:"phonetic,omitempty"`
	Phonetics []Phonetic `json:"phonetics,omitempty"`
	Meanings  []Meaning  `json:"meanings"`
	SourceURL string     `json:"sourceUrl,omitempty"`
}

// Phonetic represents pronunciation information
type Phonetic struct {
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// Meaning groups dictionary definitions by part of speech
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

// Definition represents a single definition
type Definition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
}

// WordDefinition is what the definition endpoint returns for a stored word
type WordDefinition struct {
	WordID   string    `json:"wordId"`
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	AudioURL string    `json:"audioUrl,omitempty"`
	Meanings []Meaning `json:"meanings"`
	Sources  []string  `json:"sources,omitempty"`
}
