package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/repository"
	"github.com/lehmann314159/flashcards/internal/services"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTestRouter(t *testing.T, apiToken string) (*chi.Mux, func()) {
	t.Helper()

	db, err := repository.Open(context.Background(), repository.DriverSQLite, ":memory:", 1)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	log := testLogger()
	store := repository.NewSQLStore(db)
	vocabulary := services.NewVocabularyService(store.Words, services.NewDictionaryService(), log)
	study := services.NewStudyService(store, log)
	handler := NewHandler(vocabulary, study, log, 1<<20)
	router := NewRouter(handler, apiToken, log)

	cleanup := func() {
		db.Close()
	}

	return router, cleanup
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

const appleBank = `{"words":[{"word":"bank","meaning":"銀行"},{"word":"apple","meaning":"りんご"}]}`

func TestHandler_UploadVocabulary(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCount  int
	}{
		{
			name:       "wrapped words",
			body:       appleBank,
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "bare array",
			body:       `[{"word":"cat","meaning":"ねこ","category":"animals","difficulty":2}]`,
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "missing words key",
			body:       `{"items":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing meaning",
			body:       `{"words":[{"word":"dog"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "difficulty out of range",
			body:       `{"words":[{"word":"dog","meaning":"いぬ","difficulty":6}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON",
			body:       `{invalid}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("UploadVocabulary() status = %v, want %v, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var resp ErrorResponse
				decodeBody(t, rec, &resp)
				if resp.Error == "" {
					t.Error("UploadVocabulary() error response has no message")
				}
				return
			}

			var resp models.UploadResponse
			decodeBody(t, rec, &resp)
			if resp.Count != tt.wantCount || len(resp.Words) != tt.wantCount {
				t.Errorf("UploadVocabulary() count = %d, want %d", resp.Count, tt.wantCount)
			}
		})
	}

	// the failed uploads left the last good corpus in place
	rec := doRequest(t, router, http.MethodGet, "/api/v1/vocabulary", "")
	var words []models.VocabularyWord
	decodeBody(t, rec, &words)
	if len(words) != 1 || words[0].Word != "cat" {
		t.Errorf("ListVocabulary() = %v, want [cat]", words)
	}
}

func TestHandler_UploadTooLarge(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	body := `{"words":[{"word":"` + strings.Repeat("a", 2<<20) + `","meaning":"x"}]}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("UploadVocabulary() status = %v, want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_ListVocabulary(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vocabulary", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("ListVocabulary() on empty corpus = %v %s, want 200 []", rec.Code, rec.Body.String())
	}

	doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", appleBank)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/vocabulary", "")
	var words []models.VocabularyWord
	decodeBody(t, rec, &words)
	if len(words) != 2 || words[0].Word != "apple" || words[1].Word != "bank" {
		t.Errorf("ListVocabulary() = %v, want [apple bank]", words)
	}
	if words[0].Category != models.DefaultCategory || words[0].Difficulty != 1 || words[0].ID == "" {
		t.Errorf("ListVocabulary() first word = %+v, want defaults and an ID", words[0])
	}
}

func TestHandler_ListVocabularyRange(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", appleBank)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  int
	}{
		{name: "both words", path: "/api/v1/vocabulary/range/1/2", wantStatus: http.StatusOK, wantCount: 2},
		{name: "clamped end", path: "/api/v1/vocabulary/range/2/50", wantStatus: http.StatusOK, wantCount: 1},
		{name: "start past corpus", path: "/api/v1/vocabulary/range/3/5", wantStatus: http.StatusOK, wantCount: 0},
		{name: "start below one", path: "/api/v1/vocabulary/range/0/2", wantStatus: http.StatusBadRequest},
		{name: "end before start", path: "/api/v1/vocabulary/range/2/1", wantStatus: http.StatusBadRequest},
		{name: "non-numeric", path: "/api/v1/vocabulary/range/one/2", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("ListVocabularyRange() status = %v, want %v", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var words []models.VocabularyWord
			decodeBody(t, rec, &words)
			if len(words) != tt.wantCount {
				t.Errorf("ListVocabularyRange() returned %d words, want %d", len(words), tt.wantCount)
			}
		})
	}
}

func TestHandler_GetWord(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", appleBank)
	var uploaded models.UploadResponse
	decodeBody(t, rec, &uploaded)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/"+uploaded.Words[0].ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("GetWord() status = %v, want %v", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GetWord() of unknown id status = %v, want %v", rec.Code, http.StatusNotFound)
	}
}

func TestHandler_Session(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTotal  int
	}{
		{
			name:       "numeric count",
			body:       `{"startRange":1,"endRange":50,"questionCount":10,"order":"random","reviewOnly":false}`,
			wantStatus: http.StatusCreated,
			wantTotal:  10,
		},
		{
			name:       "all",
			body:       `{"startRange":1,"endRange":20,"questionCount":"all","order":"sequential"}`,
			wantStatus: http.StatusCreated,
			wantTotal:  20,
		},
		{
			name:       "count above range",
			body:       `{"startRange":5,"endRange":7,"questionCount":30,"order":"difficulty"}`,
			wantStatus: http.StatusCreated,
			wantTotal:  3,
		},
		{
			name:       "bad order",
			body:       `{"startRange":1,"endRange":2,"questionCount":1,"order":"zigzag"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad count string",
			body:       `{"startRange":1,"endRange":2,"questionCount":"many","order":"random"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "end before start",
			body:       `{"startRange":3,"endRange":2,"questionCount":1,"order":"random"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/study/session", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("CreateSession() status = %v, want %v, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var session models.StudySession
			decodeBody(t, rec, &session)
			if session.TotalWords != tt.wantTotal {
				t.Errorf("CreateSession() totalWords = %d, want %d", session.TotalWords, tt.wantTotal)
			}

			rec = doRequest(t, router, http.MethodGet, "/api/v1/study/session/"+session.ID, "")
			if rec.Code != http.StatusOK {
				t.Errorf("GetSession() status = %v, want %v", rec.Code, http.StatusOK)
			}
		})
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/study/session/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GetSession() of unknown id status = %v, want %v", rec.Code, http.StatusNotFound)
	}
	rec = doRequest(t, router, http.MethodPatch, "/api/v1/study/session/missing", `{"isCompleted":true}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("UpdateSession() of unknown id status = %v, want %v", rec.Code, http.StatusNotFound)
	}
}

// TestHandler_AppleBankFlow walks the upload, session, progress and review endpoints the way a
// client driving the cards itself would
func TestHandler_AppleBankFlow(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload",
		`[{"word":"apple","meaning":"りんご"},{"word":"bank","meaning":"銀行"}]`)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/range/1/2", "")
	var words []models.VocabularyWord
	decodeBody(t, rec, &words)
	if len(words) != 2 || words[0].Word != "apple" {
		t.Fatalf("ListVocabularyRange() = %v, want [apple bank]", words)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/study/session",
		`{"startRange":1,"endRange":2,"questionCount":2,"order":"sequential","reviewOnly":false}`)
	var session models.StudySession
	decodeBody(t, rec, &session)

	for i, remembered := range []bool{true, false} {
		body, _ := json.Marshal(map[string]interface{}{
			"wordId":       words[i].ID,
			"sessionId":    session.ID,
			"isRemembered": remembered,
		})
		rec = doRequest(t, router, http.MethodPost, "/api/v1/study/progress", string(body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("RecordProgress() status = %v, body: %s", rec.Code, rec.Body.String())
		}
	}

	rec = doRequest(t, router, http.MethodPatch, "/api/v1/study/session/"+session.ID,
		`{"correctCount":1,"incorrectCount":1,"isCompleted":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("UpdateSession() status = %v, body: %s", rec.Code, rec.Body.String())
	}
	var updated models.StudySession
	decodeBody(t, rec, &updated)
	if updated.CorrectCount != 1 || updated.IncorrectCount != 1 || !updated.IsCompleted {
		t.Errorf("UpdateSession() = %+v", updated)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/study/session/"+session.ID+"/result", "")
	var result struct {
		Accuracy int `json:"accuracy"`
	}
	decodeBody(t, rec, &result)
	if result.Accuracy != 50 {
		t.Errorf("GetSessionResult() accuracy = %d, want 50", result.Accuracy)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/study/progress/"+session.ID, "")
	var progress []models.WordProgress
	decodeBody(t, rec, &progress)
	if len(progress) != 2 {
		t.Errorf("GetSessionProgress() returned %d rows, want 2", len(progress))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/review", "")
	var review []models.ReviewItem
	decodeBody(t, rec, &review)
	if len(review) != 1 || review[0].Word.Word != "bank" || review[0].Attempts != 1 {
		t.Errorf("GetReviewWords() = %+v, want bank with attempts 1", review)
	}
}

func TestHandler_RecordProgressValidation(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing wordId", body: `{"isRemembered":true}`},
		{name: "missing isRemembered", body: `{"wordId":"x"}`},
		{name: "unknown word", body: `{"wordId":"x","isRemembered":true}`},
		{name: "invalid JSON", body: `{"wordId":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/study/progress", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("RecordProgress() status = %v, want %v", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandler_StudyRun(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", appleBank)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/study/runs",
		`{"startRange":1,"endRange":2,"questionCount":"all","order":"sequential"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("BeginRun() status = %v, body: %s", rec.Code, rec.Body.String())
	}
	var state struct {
		ID          string                 `json:"id"`
		Kind        string                 `json:"kind"`
		Length      int                    `json:"length"`
		CurrentWord *models.VocabularyWord `json:"currentWord"`
	}
	decodeBody(t, rec, &state)
	if state.Kind != "normal" || state.CurrentWord == nil || state.CurrentWord.Word != "apple" || state.Length != 2 {
		t.Fatalf("BeginRun() = %+v", state)
	}
	runPath := "/api/v1/study/runs/" + state.ID

	rec = doRequest(t, router, http.MethodGet, runPath, "")
	if rec.Code != http.StatusOK {
		t.Errorf("GetRun() status = %v, want %v", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, router, http.MethodPost, runPath+"/mark", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("MarkRun() without remembered status = %v, want %v", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, router, http.MethodPost, runPath+"/mark", `{"remembered":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("MarkRun() status = %v, body: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, runPath+"/finish", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("FinishRun() status = %v, body: %s", rec.Code, rec.Body.String())
	}
	var finished map[string]interface{}
	decodeBody(t, rec, &finished)
	if finished["state"] != "terminated_early" {
		t.Errorf("FinishRun() state = %v, want terminated_early", finished["state"])
	}
	outcome, _ := finished["outcome"].(map[string]interface{})
	if outcome["totalWords"] != float64(1) || outcome["accuracy"] != float64(100) {
		t.Errorf("FinishRun() outcome = %v, want 1 word at 100%%", outcome)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/study/session/"+state.ID, "")
	var session models.StudySession
	decodeBody(t, rec, &session)
	if session.TotalWords != 1 || session.CorrectCount != 1 || !session.IsCompleted {
		t.Errorf("stored session = %+v, want 1 of 1 completed", session)
	}

	for _, action := range []string{"/skip", "/finish"} {
		rec = doRequest(t, router, http.MethodPost, runPath+action, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("POST %s after finish status = %v, want %v", action, rec.Code, http.StatusNotFound)
		}
	}
}

func TestHandler_ImportVocabulary(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	csvContent := `word,meaning,category,example,difficulty
ephemeral,short-lived,adjectives,"The ephemeral beauty of cherry blossoms",4
ubiquitous,found everywhere,,,`

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "words.csv")
	part.Write([]byte(csvContent))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vocabulary/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ImportVocabulary() status = %v, want %v, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp models.UploadResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 2 {
		t.Errorf("ImportVocabulary() count = %v, want 2", resp.Count)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/import", `{"words":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ImportVocabulary() without a form status = %v, want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_ExportVocabulary(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	doRequest(t, router, http.MethodPost, "/api/v1/vocabulary/upload", appleBank)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/export", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ExportVocabulary() status = %v, want %v", rec.Code, http.StatusOK)
	}

	if contentType := rec.Header().Get("Content-Type"); contentType != "text/csv" {
		t.Errorf("ExportVocabulary() Content-Type = %v, want text/csv", contentType)
	}

	want := "word,meaning,category,example,difficulty\napple,りんご,uncategorized,,1\nbank,銀行,uncategorized,,1\n"
	if rec.Body.String() != want {
		t.Errorf("ExportVocabulary() body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandler_GetWordDefinition(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/vocabulary/missing/definition", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GetWordDefinition() of unknown word status = %v, want %v", rec.Code, http.StatusNotFound)
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	router, cleanup := setupTestRouter(t, "")
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck() status = %v, want %v", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("HealthCheck() status field = %v, want ok", body["status"])
	}
}

func TestBearerAuth(t *testing.T) {
	router, cleanup := setupTestRouter(t, "secret")
	defer cleanup()

	tests := []struct {
		name       string
		method     string
		auth       string
		wantStatus int
	}{
		{name: "read without token", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "write without token", method: http.MethodPost, wantStatus: http.StatusUnauthorized},
		{name: "write with wrong token", method: http.MethodPost, auth: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "write with basic auth", method: http.MethodPost, auth: "Basic secret", wantStatus: http.StatusUnauthorized},
		{name: "write with token", method: http.MethodPost, auth: "Bearer secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/vocabulary"
			var body io.Reader
			if tt.method == http.MethodPost {
				path = "/api/v1/vocabulary/upload"
				body = strings.NewReader(appleBank)
			}
			req := httptest.NewRequest(tt.method, path, body)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router, cleanup := setupTestRouter(t, "secret")
	defer cleanup()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/study/session/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Errorf("preflight status = %v, want 2xx", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusInternalServerError)
	}
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != "internal server error" {
		t.Errorf("error = %q", resp.Error)
	}
}
