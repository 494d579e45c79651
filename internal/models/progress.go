package models

import (
	"strings"
	"time"
)

// WordProgress is one recorded answer for a word. Rows are append-only.
type WordProgress struct {
	ID           string    `json:"id" db:"id"`
	WordID       *string   `json:"wordId" db:"word_id"`
	SessionID    *string   `json:"sessionId" db:"session_id"`
	IsRemembered bool      `json:"isRemembered" db:"is_remembered"`
	Attempts     int       `json:"attempts" db:"attempts"`
	LastStudied  time.Time `json:"lastStudied" db:"last_studied"`
}

// RecordProgressRequest represents the request body for recording an answer
type RecordProgressRequest struct {
	WordID       string  `json:"wordId"`
	SessionID    *string `json:"sessionId,omitempty"`
	IsRemembered *bool   `json:"isRemembered"`
	Attempts     *int    `json:"attempts,omitempty"`
}

// Validate checks the request schema
func (r *RecordProgressRequest) Validate() error {
	if strings.TrimSpace(r.WordID) == "" {
		return Invalidf("wordId is required")
	}
	if r.IsRemembered == nil {
		return Invalidf("isRemembered is required")
	}
	if r.Attempts != nil && *r.Attempts < 1 {
		return Invalidf("attempts must be at least 1")
	}
	if r.SessionID != nil && strings.TrimSpace(*r.SessionID) == "" {
		r.SessionID = nil
	}
	return nil
}

// ReviewItem is a not-remembered progress row joined with its word
type ReviewItem struct {
	WordProgress
	Word VocabularyWord `json:"word"`
}
