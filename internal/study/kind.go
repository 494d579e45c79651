package study

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind separates sessions persisted in the session store from review sessions that only exist
// for the duration of a run.
type Kind int

const (
	KindNormal Kind = iota
	KindReview
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindReview:
		return "review"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Ref identifies a session by kind. Only KindNormal IDs exist in the session store.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// NormalRef refers to a stored session
func NormalRef(sessionID string) Ref {
	return Ref{Kind: KindNormal, ID: sessionID}
}

// NewReviewRef makes a fresh synthetic review session identifier
func NewReviewRef() Ref {
	return Ref{Kind: KindReview, ID: uuid.NewString()}
}

// Persisted reports whether the session lives in the session store
func (r Ref) Persisted() bool {
	return r.Kind == KindNormal
}

// State is the lifecycle of an Engine. It only moves forward.
type State int

const (
	StateLoading State = iota
	StateInProgress
	StateComplete
	StateTerminatedEarly
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateTerminatedEarly:
		return "terminated_early"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finished reports whether a completion signal fired
func (s State) Finished() bool {
	return s == StateComplete || s == StateTerminatedEarly
}
