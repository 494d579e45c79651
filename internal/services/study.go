package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/repository"
	"github.com/lehmann314159/flashcards/internal/study"
)

// StudyService creates study sessions, wires the progression engine to the stores and persists
// final tallies
type StudyService struct {
	words    repository.WordRepository
	sessions repository.SessionRepository
	progress repository.ProgressRepository
	log      logrus.FieldLogger

	runs *runRegistry
	seed func() int64
}

// StudyOption configures a StudyService
type StudyOption func(*StudyService)

// WithSeed sets the seed source for the random order of each run
func WithSeed(seed func() int64) StudyOption {
	return func(s *StudyService) {
		s.seed = seed
	}
}

// NewStudyService creates a new study service over store
func NewStudyService(store *repository.Store, log logrus.FieldLogger, opts ...StudyOption) *StudyService {
	s := &StudyService{
		words:    store.Words,
		sessions: store.Sessions,
		progress: store.Progress,
		log:      log,
		runs:     newRunRegistry(),
		seed:     func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession stores a new session derived from cfg
func (s *StudyService) CreateSession(ctx context.Context, cfg models.StudyConfig) (*models.StudySession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, models.NewStudySession(cfg))
}

// GetSession retrieves a session by ID
func (s *StudyService) GetSession(ctx context.Context, id string) (*models.StudySession, error) {
	return s.sessions.GetByID(ctx, id)
}

// UpdateSession merges the provided fields into a session
func (s *StudyService) UpdateSession(ctx context.Context, id string, req *models.UpdateSessionRequest) (*models.StudySession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.sessions.Update(ctx, id, req)
}

// SessionResult returns a session with its accuracy
func (s *StudyService) SessionResult(ctx context.Context, id string) (*models.SessionResult, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionResult{StudySession: session, Accuracy: session.Accuracy()}, nil
}

// RecordProgress appends one answer. The word and, when given, the session must exist.
func (s *StudyService) RecordProgress(ctx context.Context, req *models.RecordProgressRequest) (*models.WordProgress, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.words.GetByID(ctx, req.WordID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.Invalidf("unknown wordId %q", req.WordID)
		}
		return nil, err
	}
	if req.SessionID != nil {
		if _, err := s.sessions.GetByID(ctx, *req.SessionID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.Invalidf("unknown sessionId %q", *req.SessionID)
			}
			return nil, err
		}
	}

	attempts := 1
	if req.Attempts != nil {
		attempts = *req.Attempts
	}
	wordID := req.WordID
	return s.progress.Create(ctx, &models.WordProgress{
		WordID:       &wordID,
		SessionID:    req.SessionID,
		IsRemembered: *req.IsRemembered,
		Attempts:     attempts,
	})
}

// ListProgress returns the answers recorded for a session
func (s *StudyService) ListProgress(ctx context.Context, sessionID string) ([]*models.WordProgress, error) {
	return s.progress.ListBySession(ctx, sessionID)
}

// ReviewSet returns every not-remembered answer joined with its word, most attempts first
func (s *StudyService) ReviewSet(ctx context.Context) ([]*models.ReviewItem, error) {
	return s.progress.ListReview(ctx)
}

// recorder appends one progress row per answer. Review answers carry no session.
func (s *StudyService) recorder() study.Recorder {
	return study.RecorderFunc(func(ctx context.Context, ref study.Ref, wordID string, remembered bool) error {
		row := &models.WordProgress{
			WordID:       &wordID,
			IsRemembered: remembered,
			Attempts:     1,
		}
		if ref.Persisted() {
			sessionID := ref.ID
			row.SessionID = &sessionID
		}
		_, err := s.progress.Create(ctx, row)
		return err
	})
}

// BeginRun starts a server-side study run. Normal runs create a stored session, review runs
// walk the current review set under a synthetic identifier.
func (s *StudyService) BeginRun(ctx context.Context, cfg models.StudyConfig) (*RunState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		ref        study.Ref
		totalWords int
		candidates []*models.VocabularyWord
	)

	if cfg.ReviewOnly {
		items, err := s.progress.ListReview(ctx)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, models.Invalidf("no words to review")
		}
		candidates = lo.Map(items, func(item *models.ReviewItem, _ int) *models.VocabularyWord {
			w := item.Word
			return &w
		})
		ref = study.NewReviewRef()
		totalWords = len(candidates)
	} else {
		words, err := s.words.ListRange(ctx, cfg.StartRange, cfg.EndRange)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, models.Invalidf("no words in range %d-%d", cfg.StartRange, cfg.EndRange)
		}
		session, err := s.sessions.Create(ctx, models.NewStudySession(cfg))
		if err != nil {
			return nil, err
		}
		candidates = words
		ref = study.NormalRef(session.ID)
		totalWords = session.TotalWords
	}

	engine := study.New(ref, totalWords, cfg.Order,
		study.WithRand(rand.New(rand.NewSource(s.seed()))),
		study.WithRecorder(s.recorder()),
	)
	if err := engine.Load(candidates); err != nil {
		return nil, err
	}

	r := &run{engine: engine}
	state := r.state()
	s.runs.put(r)

	s.log.WithFields(logrus.Fields{
		"run":    ref.ID,
		"kind":   ref.Kind.String(),
		"length": state.Length,
	}).Info("study run started")

	return state, nil
}

// GetRun returns the state of an active run
func (s *StudyService) GetRun(ctx context.Context, id string) (*RunState, error) {
	r, err := s.runs.get(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(), nil
}

// Mark answers the current card. Progress recording is best effort: a failed write is logged
// and the run moves on.
func (s *StudyService) Mark(ctx context.Context, id string, remembered bool) (*RunState, error) {
	r, err := s.runs.get(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome, ok := r.engine.Outcome(); ok {
		return s.finishRun(ctx, r, outcome)
	}

	if err := r.engine.MarkAndAdvance(ctx, remembered); err != nil {
		switch {
		case errors.Is(err, study.ErrFinished), errors.Is(err, study.ErrNoCurrentWord):
			return nil, models.Invalidf("study run %s has no card to answer", id)
		default:
			s.log.WithError(err).WithField("run", id).Warn("failed to record progress")
		}
	}

	if outcome, ok := r.engine.Complete(); ok {
		return s.finishRun(ctx, r, outcome)
	}
	return r.state(), nil
}

// Skip moves past the current card without recording an answer
func (s *StudyService) Skip(ctx context.Context, id string) (*RunState, error) {
	r, err := s.runs.get(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome, ok := r.engine.Outcome(); ok {
		return s.finishRun(ctx, r, outcome)
	}
	r.engine.Advance()

	if outcome, ok := r.engine.Complete(); ok {
		return s.finishRun(ctx, r, outcome)
	}
	return r.state(), nil
}

// Finish ends a run early. totalWords is frozen to the cards presented so far. A run whose
// outcome is already latched only has its tallies saved again.
func (s *StudyService) Finish(ctx context.Context, id string) (*RunState, error) {
	r, err := s.runs.get(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	outcome, ok := r.engine.Outcome()
	if !ok {
		outcome, _ = r.engine.TerminateEarly()
	}
	return s.finishRun(ctx, r, outcome)
}

// ActiveRuns returns how many runs have not finished yet
func (s *StudyService) ActiveRuns() int {
	return s.runs.len()
}

// finishRun writes the tallies of a normal session back to the session store and evicts the run.
// A session that disappeared meanwhile is not an error, the outcome held here is returned as is.
// On any other failure the run stays registered with its outcome latched, so a later Mark, Skip
// or Finish saves the same tallies again.
func (s *StudyService) finishRun(ctx context.Context, r *run, outcome study.Outcome) (*RunState, error) {
	entry := s.log.WithFields(logrus.Fields{
		"run":      outcome.Ref.ID,
		"state":    outcome.State.String(),
		"total":    outcome.TotalWords,
		"correct":  outcome.CorrectCount,
		"accuracy": outcome.Accuracy,
	})

	if outcome.Ref.Persisted() {
		completed := true
		_, err := s.sessions.Update(ctx, outcome.Ref.ID, &models.UpdateSessionRequest{
			TotalWords:     &outcome.TotalWords,
			CorrectCount:   &outcome.CorrectCount,
			IncorrectCount: &outcome.IncorrectCount,
			IsCompleted:    &completed,
		})
		switch {
		case errors.Is(err, models.ErrNotFound):
			entry.Warn("session vanished before its tallies were saved")
		case err != nil:
			return nil, fmt.Errorf("failed to save session tallies: %w", err)
		}
	}

	s.runs.remove(outcome.Ref.ID)
	entry.Info("study run finished")
	return r.state(), nil
}
