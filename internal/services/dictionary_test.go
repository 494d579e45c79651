package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehmann314159/flashcards/internal/models"
)

func TestDictionaryService_Lookup(t *testing.T) {
	tests := []struct {
		name           string
		word           string
		mockResponse   string
		mockStatusCode int
		wantErr        error
		wantWord       string
		wantAudio      string
		wantSources    int
	}{
		{
			name: "successful lookup",
			word: "hello",
			mockResponse: `[{
				"word": "hello",
				"phonetics": [{"text": "/həˈloʊ/"}, {"audio": "https://example.com/hello.mp3"}],
				"meanings": [{
					"partOfSpeech": "exclamation",
					"definitions": [{"definition": "used as a greeting"}]
				}],
				"sourceUrl": "https://example.com"
			}, {
				"word": "hello",
				"meanings": [],
				"sourceUrl": "https://example.com"
			}]`,
			mockStatusCode: http.StatusOK,
			wantWord:       "hello",
			wantAudio:      "https://example.com/hello.mp3",
			wantSources:    1,
		},
		{
			name:           "word not found",
			word:           "xyzabc123",
			mockResponse:   `{"title":"No Definitions Found"}`,
			mockStatusCode: http.StatusNotFound,
			wantErr:        models.ErrNotFound,
		},
		{
			name:           "empty response",
			word:           "test",
			mockResponse:   `[]`,
			mockStatusCode: http.StatusOK,
			wantErr:        models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.mockStatusCode)
				w.Write([]byte(tt.mockResponse))
			}))
			defer server.Close()

			svc := NewDictionaryServiceWithClient(server.Client(), server.URL)

			got, err := svc.Lookup(context.Background(), tt.word)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}

			if got.Word != tt.wantWord {
				t.Errorf("Lookup() word = %v, want %v", got.Word, tt.wantWord)
			}
			if got.Phonetic == "" {
				t.Error("Lookup() did not fall back to the phonetics text")
			}
			if got.AudioURL != tt.wantAudio {
				t.Errorf("Lookup() audio = %v, want %v", got.AudioURL, tt.wantAudio)
			}
			if len(got.Sources) != tt.wantSources {
				t.Errorf("Lookup() sources = %v, want %d", got.Sources, tt.wantSources)
			}
			if len(got.Meanings) == 0 {
				t.Error("Lookup() returned no meanings")
			}
		})
	}
}

func TestDictionaryService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewDictionaryServiceWithClient(server.Client(), server.URL)

	_, err := svc.Lookup(context.Background(), "run")
	if err == nil || errors.Is(err, models.ErrNotFound) {
		t.Errorf("Lookup() error = %v, want an upstream failure", err)
	}
}

func TestDictionaryService_EscapesWord(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`[{"word": "ice cream", "meanings": []}]`))
	}))
	defer server.Close()

	svc := NewDictionaryServiceWithClient(server.Client(), server.URL)
	if _, err := svc.Lookup(context.Background(), "ice cream"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if gotPath != "/ice%20cream" {
		t.Errorf("request path = %q, want /ice%%20cream", gotPath)
	}
}

func TestDictionaryService_NewService(t *testing.T) {
	svc := NewDictionaryService()

	if svc == nil {
		t.Fatal("NewDictionaryService() returned nil")
	}

	if svc.baseURL != dictionaryAPIBaseURL {
		t.Errorf("NewDictionaryService() baseURL = %v, want %v", svc.baseURL, dictionaryAPIBaseURL)
	}
}
