package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lehmann314159/flashcards/internal/models"
)

// NewMemoryStore creates a process-lifetime store backed by maps
func NewMemoryStore() *Store {
	words := NewMemoryWordRepository()
	return &Store{
		Words:    words,
		Sessions: NewMemorySessionRepository(),
		Progress: NewMemoryProgressRepository(words),
	}
}

// corpus is an immutable snapshot of the vocabulary. Replacing the vocabulary swaps the whole snapshot.
type corpus struct {
	sorted []*models.VocabularyWord
	byID   map[string]*models.VocabularyWord
}

// MemoryWordRepository implements WordRepository in memory
type MemoryWordRepository struct {
	current atomic.Pointer[corpus]
}

// NewMemoryWordRepository creates an empty in-memory corpus
func NewMemoryWordRepository() *MemoryWordRepository {
	r := &MemoryWordRepository{}
	r.current.Store(&corpus{byID: map[string]*models.VocabularyWord{}})
	return r
}

// List returns every word sorted by word text
func (r *MemoryWordRepository) List(ctx context.Context) ([]*models.VocabularyWord, error) {
	return cloneWords(r.current.Load().sorted), nil
}

// ListRange returns a 1-based inclusive slice of List
func (r *MemoryWordRepository) ListRange(ctx context.Context, start, end int) ([]*models.VocabularyWord, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	c := r.current.Load()
	from, to := clampRange(start, end, len(c.sorted))
	return cloneWords(c.sorted[from:to]), nil
}

// GetByID retrieves a word by its ID
func (r *MemoryWordRepository) GetByID(ctx context.Context, id string) (*models.VocabularyWord, error) {
	w, ok := r.current.Load().byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneWord(w), nil
}

// ReplaceAll validates every word and then publishes the new corpus in one swap
func (r *MemoryWordRepository) ReplaceAll(ctx context.Context, words []*models.VocabularyWord) ([]*models.VocabularyWord, error) {
	if err := validateAll(words); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := &corpus{
		sorted: make([]*models.VocabularyWord, 0, len(words)),
		byID:   make(map[string]*models.VocabularyWord, len(words)),
	}
	for i, w := range words {
		stored := cloneWord(w)
		stored.ID = uuid.NewString()
		stored.Position = i
		stored.CreatedAt = now
		next.sorted = append(next.sorted, stored)
		next.byID[stored.ID] = stored
	}
	created := cloneWords(next.sorted)

	slices.SortStableFunc(next.sorted, compareWords)
	r.current.Store(next)

	return created, nil
}

// Count returns the corpus size
func (r *MemoryWordRepository) Count(ctx context.Context) (int, error) {
	return len(r.current.Load().sorted), nil
}

func (r *MemoryWordRepository) lookup(id string) (*models.VocabularyWord, bool) {
	w, ok := r.current.Load().byID[id]
	return w, ok
}

func compareWords(a, b *models.VocabularyWord) int {
	if c := cmp.Compare(a.Word, b.Word); c != 0 {
		return c
	}
	return cmp.Compare(a.Position, b.Position)
}

// MemorySessionRepository implements SessionRepository in memory
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.StudySession
}

// NewMemorySessionRepository creates an empty session store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*models.StudySession)}
}

// Create stores a new session with zeroed tallies
func (r *MemorySessionRepository) Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error) {
	stored := *session
	stored.ID = uuid.NewString()
	stored.CorrectCount = 0
	stored.IncorrectCount = 0
	stored.IsCompleted = false
	stored.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.sessions[stored.ID] = &stored
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// GetByID retrieves a session by ID
func (r *MemorySessionRepository) GetByID(ctx context.Context, id string) (*models.StudySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *s
	return &out, nil
}

// Update merges the provided fields into a stored session
func (r *MemorySessionRepository) Update(ctx context.Context, id string, req *models.UpdateSessionRequest) (*models.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	updated := *s
	req.Apply(&updated)
	r.sessions[id] = &updated

	out := updated
	return &out, nil
}

// MemoryProgressRepository implements ProgressRepository in memory
type MemoryProgressRepository struct {
	words *MemoryWordRepository

	mu   sync.RWMutex
	rows []*models.WordProgress
}

// NewMemoryProgressRepository creates an empty progress log joined against words
func NewMemoryProgressRepository(words *MemoryWordRepository) *MemoryProgressRepository {
	return &MemoryProgressRepository{words: words}
}

// Create appends a progress row
func (r *MemoryProgressRepository) Create(ctx context.Context, progress *models.WordProgress) (*models.WordProgress, error) {
	stored := *progress
	stored.ID = uuid.NewString()
	if stored.Attempts < 1 {
		stored.Attempts = 1
	}
	stored.LastStudied = time.Now().UTC()

	r.mu.Lock()
	r.rows = append(r.rows, &stored)
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// ListBySession returns a session's rows in insertion order
func (r *MemoryProgressRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.WordProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := lo.Filter(r.rows, func(p *models.WordProgress, _ int) bool {
		return p.SessionID != nil && *p.SessionID == sessionID
	})
	return lo.Map(rows, func(p *models.WordProgress, _ int) *models.WordProgress {
		out := *p
		return &out
	}), nil
}

// ListReview returns not-remembered rows joined with their words, most attempts first
func (r *MemoryProgressRepository) ListReview(ctx context.Context) ([]*models.ReviewItem, error) {
	r.mu.RLock()
	pending := lo.Filter(r.rows, func(p *models.WordProgress, _ int) bool {
		return !p.IsRemembered
	})
	r.mu.RUnlock()

	slices.SortStableFunc(pending, func(a, b *models.WordProgress) int {
		return cmp.Compare(b.Attempts, a.Attempts)
	})

	items := make([]*models.ReviewItem, 0, len(pending))
	for _, p := range pending {
		if p.WordID == nil {
			continue
		}
		w, ok := r.words.lookup(*p.WordID)
		if !ok {
			continue
		}
		items = append(items, &models.ReviewItem{WordProgress: *p, Word: *cloneWord(w)})
	}
	return items, nil
}

func cloneWord(w *models.VocabularyWord) *models.VocabularyWord {
	out := *w
	if w.Example != nil {
		e := *w.Example
		out.Example = &e
	}
	return &out
}

func cloneWords(words []*models.VocabularyWord) []*models.VocabularyWord {
	return lo.Map(words, func(w *models.VocabularyWord, _ int) *models.VocabularyWord {
		return cloneWord(w)
	})
}
