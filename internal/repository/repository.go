package repository

import (
	"context"

	"github.com/lehmann314159/flashcards/internal/models"
)

// WordRepository defines persistence for the vocabulary corpus
type WordRepository interface {
	// List returns every word sorted by word text ascending
	List(ctx context.Context) ([]*models.VocabularyWord, error)

	// ListRange returns List()[start-1 .. end-1], clamped to the corpus size
	ListRange(ctx context.Context, start, end int) ([]*models.VocabularyWord, error)

	// GetByID retrieves a word by its ID
	GetByID(ctx context.Context, id string) (*models.VocabularyWord, error)

	// ReplaceAll validates words, then atomically swaps them in for the whole corpus
	ReplaceAll(ctx context.Context, words []*models.VocabularyWord) ([]*models.VocabularyWord, error)

	// Count returns the corpus size
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines persistence for study sessions
type SessionRepository interface {
	// Create stores a new session with zeroed tallies
	Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error)

	// GetByID retrieves a session, or models.ErrNotFound
	GetByID(ctx context.Context, id string) (*models.StudySession, error)

	// Update merges the provided fields, or returns models.ErrNotFound
	Update(ctx context.Context, id string, req *models.UpdateSessionRequest) (*models.StudySession, error)
}

// ProgressRepository defines persistence for per-answer progress rows
type ProgressRepository interface {
	// Create appends a progress row
	Create(ctx context.Context, progress *models.WordProgress) (*models.WordProgress, error)

	// ListBySession returns the rows recorded for a session in insertion order
	ListBySession(ctx context.Context, sessionID string) ([]*models.WordProgress, error)

	// ListReview returns not-remembered rows joined with their words, attempts descending.
	// Rows whose word no longer exists are dropped.
	ListReview(ctx context.Context) ([]*models.ReviewItem, error)
}

// Store bundles the three repositories backed by the same storage
type Store struct {
	Words    WordRepository
	Sessions SessionRepository
	Progress ProgressRepository
}

func validateAll(words []*models.VocabularyWord) error {
	for _, w := range words {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func checkRange(start, end int) error {
	if start < 1 {
		return models.Invalidf("start must be at least 1")
	}
	if end < start {
		return models.Invalidf("end must not be less than start")
	}
	return nil
}

// clampRange converts a checked 1-based inclusive range into slice bounds over n items.
// from == to means the range starts past the end of the corpus.
func clampRange(start, end, n int) (from, to int) {
	if start > n {
		return n, n
	}
	if end > n {
		end = n
	}
	return start - 1, end
}
