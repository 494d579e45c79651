package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"

	"github.com/lehmann314159/flashcards/internal/models"
)

const (
	dictionaryAPIBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout       = 10 * time.Second
)

// ErrDefinitionNotFound is returned when the dictionary has no entry for a headword
var ErrDefinitionNotFound = fmt.Errorf("%w: no dictionary definition", models.ErrNotFound)

// DictionaryService looks up English headwords in a free dictionary API
type DictionaryService struct {
	client  *http.Client
	baseURL string
}

// NewDictionaryService creates a new dictionary service
func NewDictionaryService() *DictionaryService {
	return &DictionaryService{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: dictionaryAPIBaseURL,
	}
}

// NewDictionaryServiceWithClient creates a new dictionary service with a custom HTTP client
func NewDictionaryServiceWithClient(client *http.Client, baseURL string) *DictionaryService {
	return &DictionaryService{
		client:  client,
		baseURL: baseURL,
	}
}

// Lookup fetches the definition of a headword
func (s *DictionaryService) Lookup(ctx context.Context, word string) (*models.WordDefinition, error) {
	endpoint := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(word))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDefinitionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []models.DictionaryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrDefinitionNotFound
	}

	return toDefinition(entries), nil
}

// toDefinition keeps the first entry and collects the source URLs of all of them
func toDefinition(entries []models.DictionaryEntry) *models.WordDefinition {
	entry := entries[0]

	def := &models.WordDefinition{
		Word:     entry.Word,
		Phonetic: entry.Phonetic,
		Meanings: entry.Meanings,
	}

	for _, phonetic := range entry.Phonetics {
		if def.Phonetic == "" && phonetic.Text != "" {
			def.Phonetic = phonetic.Text
		}
		if def.AudioURL == "" && phonetic.Audio != "" {
			def.AudioURL = phonetic.Audio
		}
	}

	sources := lo.FilterMap(entries, func(e models.DictionaryEntry, _ int) (string, bool) {
		return e.SourceURL, e.SourceURL != ""
	})
	def.Sources = lo.Uniq(sources)

	return def
}
