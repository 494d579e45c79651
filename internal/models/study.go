package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Order is the policy used to arrange the words of a study session
type Order string

const (
	OrderSequential Order = "sequential"
	OrderRandom     Order = "random"
	OrderDifficulty Order = "difficulty"
)

// Valid reports whether o is a known order
func (o Order) Valid() bool {
	switch o {
	case OrderSequential, OrderRandom, OrderDifficulty:
		return true
	}
	return false
}

// QuestionCountAll asks for every word of the selected range.
const QuestionCountAll QuestionCount = -1

// QuestionCount is a positive count or QuestionCountAll. In JSON it is a number or the string "all".
type QuestionCount int

// MarshalJSON renders QuestionCountAll as "all"
func (q QuestionCount) MarshalJSON() ([]byte, error) {
	if q == QuestionCountAll {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(q))), nil
}

// UnmarshalJSON accepts an integer, -1, or "all"
func (q *QuestionCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.EqualFold(s, "all") {
			*q = QuestionCountAll
			return nil
		}
		return Invalidf("questionCount must be a number or \"all\"")
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return Invalidf("questionCount must be a number or \"all\"")
	}
	*q = QuestionCount(n)
	return nil
}

// ParseQuestionCount reads a command-line count: a positive number or "all"
func ParseQuestionCount(s string) (QuestionCount, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return QuestionCountAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, Invalidf("question count must be a number or \"all\"")
	}
	return QuestionCount(n), nil
}

// StudyConfig is the client's choice of range and ordering for a study session
type StudyConfig struct {
	StartRange    int           `json:"startRange"`
	EndRange      int           `json:"endRange"`
	QuestionCount QuestionCount `json:"questionCount"`
	Order         Order         `json:"order"`
	ReviewOnly    bool          `json:"reviewOnly"`
}

// Validate checks the config schema
func (c StudyConfig) Validate() error {
	if c.StartRange < 1 {
		return Invalidf("startRange must be at least 1")
	}
	if c.EndRange < c.StartRange {
		return Invalidf("endRange must not be less than startRange")
	}
	if c.QuestionCount != QuestionCountAll && c.QuestionCount < 1 {
		return Invalidf("questionCount must be at least 1 or \"all\"")
	}
	if !c.Order.Valid() {
		return Invalidf("order must be one of sequential, random, difficulty")
	}
	return nil
}

// RangeSize is the number of positions covered by the range
func (c StudyConfig) RangeSize() int {
	return c.EndRange - c.StartRange + 1
}

// ResolvedCount is the question count after resolving "all" and capping at the range size
func (c StudyConfig) ResolvedCount() int {
	if c.QuestionCount == QuestionCountAll || int(c.QuestionCount) > c.RangeSize() {
		return c.RangeSize()
	}
	return int(c.QuestionCount)
}

// StudySession holds a session's configuration and its running or final tallies
type StudySession struct {
	ID             string    `json:"id" db:"id"`
	StartRange     int       `json:"startRange" db:"start_range"`
	EndRange       int       `json:"endRange" db:"end_range"`
	TotalWords     int       `json:"totalWords" db:"total_words"`
	CorrectCount   int       `json:"correctCount" db:"correct_count"`
	IncorrectCount int       `json:"incorrectCount" db:"incorrect_count"`
	IsCompleted    bool      `json:"isCompleted" db:"is_completed"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// NewStudySession derives an unsaved session from a config
func NewStudySession(cfg StudyConfig) *StudySession {
	return &StudySession{
		StartRange: cfg.StartRange,
		EndRange:   cfg.EndRange,
		TotalWords: cfg.ResolvedCount(),
	}
}

// Accuracy returns the percentage of remembered words, rounded
func (s *StudySession) Accuracy() int {
	return Accuracy(s.CorrectCount, s.TotalWords)
}

// Accuracy returns round(correct/total*100), or 0 for an empty total
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// UpdateSessionRequest is a partial update of a session. Nil fields are left unchanged.
type UpdateSessionRequest struct {
	StartRange     *int  `json:"startRange,omitempty"`
	EndRange       *int  `json:"endRange,omitempty"`
	TotalWords     *int  `json:"totalWords,omitempty"`
	CorrectCount   *int  `json:"correctCount,omitempty"`
	IncorrectCount *int  `json:"incorrectCount,omitempty"`
	IsCompleted    *bool `json:"isCompleted,omitempty"`
}

// Validate rejects negative counters and empty ranges
func (r *UpdateSessionRequest) Validate() error {
	for name, v := range map[string]*int{
		"totalWords":     r.TotalWords,
		"correctCount":   r.CorrectCount,
		"incorrectCount": r.IncorrectCount,
	} {
		if v != nil && *v < 0 {
			return Invalidf("%s must not be negative", name)
		}
	}
	if r.StartRange != nil && *r.StartRange < 1 {
		return Invalidf("startRange must be at least 1")
	}
	if r.EndRange != nil && *r.EndRange < 1 {
		return Invalidf("endRange must be at least 1")
	}
	return nil
}

// Apply merges the provided fields into s
func (r *UpdateSessionRequest) Apply(s *StudySession) {
	if r.StartRange != nil {
		s.StartRange = *r.StartRange
	}
	if r.EndRange != nil {
		s.EndRange = *r.EndRange
	}
	if r.TotalWords != nil {
		s.TotalWords = *r.TotalWords
	}
	if r.CorrectCount != nil {
		s.CorrectCount = *r.CorrectCount
	}
	if r.IncorrectCount != nil {
		s.IncorrectCount = *r.IncorrectCount
	}
	if r.IsCompleted != nil {
		s.IsCompleted = *r.IsCompleted
	}
}

// SessionResult is a session together with its accuracy
type SessionResult struct {
	*StudySession
	Accuracy int `json:"accuracy"`
}
