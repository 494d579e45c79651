package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/lehmann314159/flashcards/internal/models"
)

const (
	wordColumns     = `id, word, meaning, category, example, difficulty, position, created_at`
	sessionColumns  = `id, start_range, end_range, total_words, correct_count, incorrect_count, is_completed, created_at`
	progressColumns = `id, word_id, session_id, is_remembered, attempts, last_studied`
)

// NewSQLStore creates repositories over a sqlite3 or postgres connection
func NewSQLStore(db *sqlx.DB) *Store {
	return &Store{
		Words:    NewSQLWordRepository(db),
		Sessions: NewSQLSessionRepository(db),
		Progress: NewSQLProgressRepository(db),
	}
}

// wordOrder sorts by byte order of the word text on every driver, matching the in-memory store
func wordOrder(db *sqlx.DB) string {
	if db.DriverName() == DriverSQLite {
		return "word, position"
	}
	return `word COLLATE "C", position`
}

// SQLWordRepository implements WordRepository using SQL
type SQLWordRepository struct {
	db *sqlx.DB
}

// NewSQLWordRepository creates a new SQL word repository
func NewSQLWordRepository(db *sqlx.DB) *SQLWordRepository {
	return &SQLWordRepository{db: db}
}

// List returns every word sorted by word text
func (r *SQLWordRepository) List(ctx context.Context) ([]*models.VocabularyWord, error) {
	words := []*models.VocabularyWord{}
	query := `SELECT ` + wordColumns + ` FROM vocabulary_words ORDER BY ` + wordOrder(r.db)
	if err := r.db.SelectContext(ctx, &words, query); err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	return words, nil
}

// ListRange returns a 1-based inclusive slice of List
func (r *SQLWordRepository) ListRange(ctx context.Context, start, end int) ([]*models.VocabularyWord, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	words := []*models.VocabularyWord{}
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM vocabulary_words ORDER BY ` + wordOrder(r.db) + ` LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &words, query, end-start+1, start-1); err != nil {
		return nil, fmt.Errorf("failed to query word range: %w", err)
	}
	return words, nil
}

// GetByID retrieves a word by its ID
func (r *SQLWordRepository) GetByID(ctx context.Context, id string) (*models.VocabularyWord, error) {
	var word models.VocabularyWord
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM vocabulary_words WHERE id = ?`)
	if err := r.db.GetContext(ctx, &word, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return &word, nil
}

// ReplaceAll deletes the corpus and inserts words inside one transaction
func (r *SQLWordRepository) ReplaceAll(ctx context.Context, words []*models.VocabularyWord) ([]*models.VocabularyWord, error) {
	if err := validateAll(words); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary_words`); err != nil {
		return nil, fmt.Errorf("failed to clear words: %w", err)
	}

	now := time.Now().UTC()
	insert := tx.Rebind(`INSERT INTO vocabulary_words (` + wordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	created := make([]*models.VocabularyWord, 0, len(words))
	for i, w := range words {
		stored := cloneWord(w)
		stored.ID = uuid.NewString()
		stored.Position = i
		stored.CreatedAt = now

		_, err := tx.ExecContext(ctx, insert,
			stored.ID, stored.Word, stored.Meaning, stored.Category, stored.Example,
			stored.Difficulty, stored.Position, stored.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert word %q: %w", stored.Word, err)
		}
		created = append(created, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit words: %w", err)
	}
	return created, nil
}

// Count returns the corpus size
func (r *SQLWordRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vocabulary_words`); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// SQLSessionRepository implements SessionRepository using SQL
type SQLSessionRepository struct {
	db *sqlx.DB
}

// NewSQLSessionRepository creates a new SQL session repository
func NewSQLSessionRepository(db *sqlx.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db}
}

// Create stores a new session with zeroed tallies
func (r *SQLSessionRepository) Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error) {
	stored := *session
	stored.ID = uuid.NewString()
	stored.CorrectCount = 0
	stored.IncorrectCount = 0
	stored.IsCompleted = false
	stored.CreatedAt = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO study_sessions (`+sessionColumns+`)
		 VALUES (:id, :start_range, :end_range, :total_words, :correct_count, :incorrect_count, :is_completed, :created_at)`,
		&stored,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return &stored, nil
}

// GetByID retrieves a session by ID
func (r *SQLSessionRepository) GetByID(ctx context.Context, id string) (*models.StudySession, error) {
	return getSession(ctx, r.db, id)
}

// Update merges the provided fields into a stored session
func (r *SQLSessionRepository) Update(ctx context.Context, id string, req *models.UpdateSessionRequest) (*models.StudySession, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := getSession(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(session)

	_, err = tx.NamedExecContext(ctx,
		`UPDATE study_sessions SET start_range = :start_range, end_range = :end_range, total_words = :total_words,
		 correct_count = :correct_count, incorrect_count = :incorrect_count, is_completed = :is_completed
		 WHERE id = :id`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return session, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getSession(ctx context.Context, q queryer, id string) (*models.StudySession, error) {
	var session models.StudySession
	query := q.Rebind(`SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// SQLProgressRepository implements ProgressRepository using SQL
type SQLProgressRepository struct {
	db *sqlx.DB
}

// NewSQLProgressRepository creates a new SQL progress repository
func NewSQLProgressRepository(db *sqlx.DB) *SQLProgressRepository {
	return &SQLProgressRepository{db: db}
}

// Create appends a progress row
func (r *SQLProgressRepository) Create(ctx context.Context, progress *models.WordProgress) (*models.WordProgress, error) {
	stored := *progress
	stored.ID = uuid.NewString()
	if stored.Attempts < 1 {
		stored.Attempts = 1
	}
	stored.LastStudied = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO word_progress (`+progressColumns+`)
		 VALUES (:id, :word_id, :session_id, :is_remembered, :attempts, :last_studied)`,
		&stored,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert progress: %w", err)
	}
	return &stored, nil
}

// ListBySession returns a session's rows in the order they were studied
func (r *SQLProgressRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.WordProgress, error) {
	rows := []*models.WordProgress{}
	query := r.db.Rebind(`SELECT ` + progressColumns + ` FROM word_progress WHERE session_id = ? ORDER BY last_studied, id`)
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	return rows, nil
}

// reviewRow is the flat shape of the review join
type reviewRow struct {
	models.WordProgress
	WordText       string    `db:"w_word"`
	WordMeaning    string    `db:"w_meaning"`
	WordCategory   string    `db:"w_category"`
	WordExample    *string   `db:"w_example"`
	WordDifficulty int       `db:"w_difficulty"`
	WordPosition   int       `db:"w_position"`
	WordCreatedAt  time.Time `db:"w_created_at"`
}

// ListReview returns not-remembered rows joined with their words, most attempts first
func (r *SQLProgressRepository) ListReview(ctx context.Context) ([]*models.ReviewItem, error) {
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id, p.word_id, p.session_id, p.is_remembered, p.attempts, p.last_studied,
		       w.word AS w_word, w.meaning AS w_meaning, w.category AS w_category, w.example AS w_example,
		       w.difficulty AS w_difficulty, w.position AS w_position, w.created_at AS w_created_at
		FROM word_progress p
		JOIN vocabulary_words w ON w.id = p.word_id
		WHERE p.is_remembered = FALSE
		ORDER BY p.attempts DESC, p.last_studied, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review words: %w", err)
	}

	return lo.Map(rows, func(row reviewRow, _ int) *models.ReviewItem {
		return &models.ReviewItem{
			WordProgress: row.WordProgress,
			Word: models.VocabularyWord{
				ID:         *row.WordID,
				Word:       row.WordText,
				Meaning:    row.WordMeaning,
				Category:   row.WordCategory,
				Example:    row.WordExample,
				Difficulty: row.WordDifficulty,
				Position:   row.WordPosition,
				CreatedAt:  row.WordCreatedAt,
			},
		}
	}), nil
}
