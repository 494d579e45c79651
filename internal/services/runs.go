package services

import (
	"sync"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/study"
)

// RunState is what clients see of a server-side study run
type RunState struct {
	ID             string                 `json:"id"`
	Kind           study.Kind             `json:"kind"`
	SessionID      *string                `json:"sessionId"`
	State          study.State            `json:"state"`
	Position       int                    `json:"position"`
	Length         int                    `json:"length"`
	CorrectCount   int                    `json:"correctCount"`
	IncorrectCount int                    `json:"incorrectCount"`
	CurrentWord    *models.VocabularyWord `json:"currentWord,omitempty"`
	Outcome        *study.Outcome         `json:"outcome,omitempty"`
}

// run guards one engine. Answers for the same run are applied one at a time.
type run struct {
	mu     sync.Mutex
	engine *study.Engine
}

// state must be called with r.mu held
func (r *run) state() *RunState {
	st := r.engine.Status()
	out := &RunState{
		ID:             st.Ref.ID,
		Kind:           st.Ref.Kind,
		State:          st.State,
		Position:       st.Position,
		Length:         st.Length,
		CorrectCount:   st.CorrectCount,
		IncorrectCount: st.IncorrectCount,
		CurrentWord:    st.CurrentWord,
	}
	if st.Ref.Persisted() {
		id := st.Ref.ID
		out.SessionID = &id
	}
	if outcome, ok := r.engine.Outcome(); ok {
		out.Outcome = &outcome
	}
	return out
}

// runRegistry holds the runs that have not finished yet
type runRegistry struct {
	mu   sync.Mutex
	runs map[string]*run
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*run)}
}

func (g *runRegistry) put(r *run) {
	g.mu.Lock()
	g.runs[r.engine.Ref().ID] = r
	g.mu.Unlock()
}

func (g *runRegistry) get(id string) (*run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.runs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (g *runRegistry) remove(id string) {
	g.mu.Lock()
	delete(g.runs, id)
	g.mu.Unlock()
}

func (g *runRegistry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.runs)
}
