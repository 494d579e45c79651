package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/repository"
)

// VocabularyService provides business logic for the word corpus
type VocabularyService struct {
	repo       repository.WordRepository
	dictionary *DictionaryService
	log        logrus.FieldLogger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(repo repository.WordRepository, dictionary *DictionaryService, log logrus.FieldLogger) *VocabularyService {
	return &VocabularyService{
		repo:       repo,
		dictionary: dictionary,
		log:        log,
	}
}

// Upload replaces the whole corpus. Every entry is validated before anything is written.
func (s *VocabularyService) Upload(ctx context.Context, entries []models.UploadWord) (*models.UploadResponse, error) {
	words := make([]*models.VocabularyWord, 0, len(entries))
	for i, entry := range entries {
		word, err := entry.ToWord(i + 1)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	created, err := s.repo.ReplaceAll(ctx, words)
	if err != nil {
		return nil, err
	}

	s.log.WithField("count", len(created)).Info("vocabulary replaced")
	return &models.UploadResponse{Count: len(created), Words: created}, nil
}

// Import parses a vocabulary file and uploads its entries
func (s *VocabularyService) Import(ctx context.Context, filename string, r io.Reader) (*models.UploadResponse, error) {
	entries, err := ParseVocabularyFile(filename, r)
	if err != nil {
		return nil, err
	}
	return s.Upload(ctx, entries)
}

// List returns the corpus sorted by word
func (s *VocabularyService) List(ctx context.Context) ([]*models.VocabularyWord, error) {
	return s.repo.List(ctx)
}

// ListRange returns the words at 1-based positions start..end of List
func (s *VocabularyService) ListRange(ctx context.Context, start, end int) ([]*models.VocabularyWord, error) {
	return s.repo.ListRange(ctx, start, end)
}

// GetByID retrieves a word by ID
func (s *VocabularyService) GetByID(ctx context.Context, id string) (*models.VocabularyWord, error) {
	return s.repo.GetByID(ctx, id)
}

// Count returns the corpus size
func (s *VocabularyService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// GetDefinition fetches the dictionary definition of a stored word
func (s *VocabularyService) GetDefinition(ctx context.Context, id string) (*models.WordDefinition, error) {
	word, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	def, err := s.dictionary.Lookup(ctx, word.Word)
	if err != nil {
		return nil, err
	}
	def.WordID = word.ID
	return def, nil
}

// ExportCSV writes the corpus in the same column layout the importer reads
func (s *VocabularyService) ExportCSV(ctx context.Context, w io.Writer) error {
	words, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch words: %w", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, word := range words {
		if err := writer.Write(exportRecord(word)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
