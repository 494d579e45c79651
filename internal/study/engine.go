// Package study drives one flashcard session: it builds the study sequence from a candidate list,
// walks it one word at a time, keeps the tallies and fires completion exactly once.
//
// An Engine is not safe for concurrent use. Callers serving several goroutines guard it themselves.
package study

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lehmann314159/flashcards/internal/models"
)

var (
	// ErrFinished is returned when an answer arrives after completion or early termination.
	ErrFinished = errors.New("study session already finished")

	// ErrNoCurrentWord is returned when an answer arrives with no word on the card.
	ErrNoCurrentWord = errors.New("no current word")

	// ErrAlreadyLoaded is returned when Load is called twice.
	ErrAlreadyLoaded = errors.New("study sequence already loaded")
)

// Recorder stores one answer. Failures don't undo the answer in the engine.
type Recorder interface {
	Record(ctx context.Context, ref Ref, wordID string, remembered bool) error
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(ctx context.Context, ref Ref, wordID string, remembered bool) error

// Record calls f
func (f RecorderFunc) Record(ctx context.Context, ref Ref, wordID string, remembered bool) error {
	return f(ctx, ref, wordID, remembered)
}

// Outcome is the final tally reported once per session
type Outcome struct {
	Ref            Ref   `json:"ref"`
	State          State `json:"state"`
	TotalWords     int   `json:"totalWords"`
	CorrectCount   int   `json:"correctCount"`
	IncorrectCount int   `json:"incorrectCount"`
	Accuracy       int   `json:"accuracy"`
}

// Status is a point-in-time view of an engine
type Status struct {
	Ref            Ref                    `json:"ref"`
	State          State                  `json:"state"`
	Position       int                    `json:"position"`
	Length         int                    `json:"length"`
	CorrectCount   int                    `json:"correctCount"`
	IncorrectCount int                    `json:"incorrectCount"`
	CurrentWord    *models.VocabularyWord `json:"currentWord,omitempty"`
}

// Engine walks the study sequence of one session
type Engine struct {
	ref        Ref
	totalWords int
	order      models.Order
	rng        *rand.Rand
	recorder   Recorder

	loaded    bool
	sequence  []*models.VocabularyWord
	index     int
	correct   int
	incorrect int

	// finished latches on the first completion signal and never resets
	finished bool
	outcome  Outcome
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the random source used for sampling
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithRecorder sets where answers are stored
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an engine in the Loading state. totalWords is the resolved question count and is
// ignored for review sessions.
func New(ref Ref, totalWords int, order models.Order, opts ...Option) *Engine {
	e := &Engine{
		ref:        ref,
		totalWords: totalWords,
		order:      order,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Load builds the study sequence from the candidates and starts the session
func (e *Engine) Load(candidates []*models.VocabularyWord) error {
	if e.loaded {
		return ErrAlreadyLoaded
	}
	e.sequence = BuildSequence(e.ref.Kind, candidates, e.totalWords, e.order, e.rng)
	e.loaded = true
	return nil
}

// Ref returns the session this engine drives
func (e *Engine) Ref() Ref {
	return e.ref
}

// Sequence returns the study sequence in presentation order
func (e *Engine) Sequence() []*models.VocabularyWord {
	out := make([]*models.VocabularyWord, len(e.sequence))
	copy(out, e.sequence)
	return out
}

// CurrentWord returns the word on the card, or false past the end of the sequence
func (e *Engine) CurrentWord() (*models.VocabularyWord, bool) {
	if e.index >= len(e.sequence) {
		return nil, false
	}
	return e.sequence[e.index], true
}

// Advance moves to the next word without recording an answer. It is a no-op at the end and
// after the session finished.
func (e *Engine) Advance() {
	if e.finished || e.index >= len(e.sequence) {
		return
	}
	e.index++
}

// MarkAndAdvance counts the answer, records it and moves on. A recording failure is returned
// after the engine already advanced.
func (e *Engine) MarkAndAdvance(ctx context.Context, remembered bool) error {
	if e.finished {
		return ErrFinished
	}
	word, ok := e.CurrentWord()
	if !ok {
		return ErrNoCurrentWord
	}

	if remembered {
		e.correct++
	} else {
		e.incorrect++
	}

	var err error
	if e.recorder != nil {
		err = e.recorder.Record(ctx, e.ref, word.ID, remembered)
	}
	e.index++

	if err != nil {
		return fmt.Errorf("failed to record progress for %q: %w", word.Word, err)
	}
	return nil
}

// IsComplete reports whether every word was presented. An empty sequence is never complete.
func (e *Engine) IsComplete() bool {
	return len(e.sequence) > 0 && e.index >= len(e.sequence)
}

// Complete fires natural completion. It returns false if the sequence isn't exhausted yet or a
// completion signal already fired.
func (e *Engine) Complete() (Outcome, bool) {
	if e.finished || !e.IsComplete() {
		return Outcome{}, false
	}
	return e.finish(StateComplete, len(e.sequence)), true
}

// TerminateEarly stops the session and freezes totalWords to the words presented so far.
// It returns false if a completion signal already fired.
func (e *Engine) TerminateEarly() (Outcome, bool) {
	if e.finished {
		return Outcome{}, false
	}
	if e.IsComplete() {
		return e.finish(StateComplete, len(e.sequence)), true
	}
	return e.finish(StateTerminatedEarly, e.index), true
}

func (e *Engine) finish(state State, total int) Outcome {
	e.finished = true
	e.outcome = Outcome{
		Ref:            e.ref,
		State:          state,
		TotalWords:     total,
		CorrectCount:   e.correct,
		IncorrectCount: e.incorrect,
		Accuracy:       models.Accuracy(e.correct, total),
	}
	return e.outcome
}

// Outcome returns the final tally once the session finished
func (e *Engine) Outcome() (Outcome, bool) {
	return e.outcome, e.finished
}

// State returns the lifecycle state
func (e *Engine) State() State {
	switch {
	case e.finished:
		return e.outcome.State
	case !e.loaded || len(e.sequence) == 0:
		return StateLoading
	default:
		return StateInProgress
	}
}

// Status returns a snapshot of the engine
func (e *Engine) Status() Status {
	st := Status{
		Ref:            e.ref,
		State:          e.State(),
		Position:       e.index,
		Length:         len(e.sequence),
		CorrectCount:   e.correct,
		IncorrectCount: e.incorrect,
	}
	if !e.finished {
		if w, ok := e.CurrentWord(); ok {
			st.CurrentWord = w
		}
	}
	return st
}
