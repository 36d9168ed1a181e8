package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/keyphrase-extractor/internal/auth"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

const operatorPassword = "correct horse"

type memoryTraining struct {
	mu      sync.Mutex
	records []*storage.TrainingRecord
}

func (m *memoryTraining) CreateBatch(ctx context.Context, records []*storage.TrainingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryTraining) GetByVariant(ctx context.Context, variant string) ([]*storage.TrainingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.TrainingRecord
	for _, r := range m.records {
		if r.Variant == variant {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryTraining) DeleteByVariant(ctx context.Context, variant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, r := range m.records {
		if r.Variant != variant {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

type memoryHistory struct {
	records []*storage.ModelRecord
}

func (m *memoryHistory) Create(ctx context.Context, record *storage.ModelRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memoryHistory) GetByID(ctx context.Context, id uuid.UUID) (*storage.ModelRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrModelNotFound
}

func (m *memoryHistory) GetLatest(ctx context.Context, variant string) (*storage.ModelRecord, error) {
	recs, _ := m.ListByVariant(ctx, variant)
	if len(recs) == 0 {
		return nil, storage.ErrModelNotFound
	}
	return recs[0], nil
}

func (m *memoryHistory) ListByVariant(ctx context.Context, variant string) ([]*storage.ModelRecord, error) {
	var out []*storage.ModelRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Variant == variant {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, training storage.TrainingRepository) *Server {
	t.Helper()
	hash, err := auth.HashPassword(operatorPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return NewServer(ServerConfig{
		Auth: auth.NewJWTService(auth.Config{
			SecretKey:     "test-secret",
			PasswordHash:  hash,
			TokenDuration: time.Hour,
		}),
		Models:         storage.NewFileModelStore(t.TempDir()),
		Training:       training,
		Resources:      pipeline.DefaultResources(),
		DefaultVariant: pipeline.SupTfIdf,
		TopN:           5,
		Workers:        2,
	})
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/auth/token", "", auth.TokenRequest{Password: operatorPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	return resp["token"]
}

func sentence(text, tags string) models.Sentence {
	words := strings.Fields(text)
	stems := make([]string, len(words))
	for i, w := range words {
		stems[i] = strings.ToLower(w)
	}
	return models.Sentence{Words: words, Stems: stems, POS: strings.Fields(tags)}
}

func sampleDocument() *models.Document {
	return &models.Document{
		ID: "doc-1",
		Sentences: []models.Sentence{
			sentence("graph theory studies graph structure", "NN NN VBZ NN NN"),
			sentence("graph theory is useful", "NN NN VBZ JJ"),
		},
	}
}

func trainingExamples() []models.TrainingExample {
	return []models.TrainingExample{
		{Features: []float64{0.9}, Label: 1},
		{Features: []float64{0.8}, Label: 1},
		{Features: []float64{0.1}, Label: 0},
		{Features: []float64{0.2}, Label: 0},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestExtract_NoModel(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/extract", "", ExtractRequest{
		DocumentInput: DocumentInput{Document: sampleDocument()},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/models/suptfidf", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for model, got %d", rec.Code)
	}
}

func TestExtract_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"unknown variant", `{"variant":"textrank","text":"hello"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTrain_RequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/train", "", TrainRequest{Examples: trainingExamples()})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestTrainThenExtract(t *testing.T) {
	s := newTestServer(t, nil)
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/train", token, TrainRequest{Examples: trainingExamples()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("train failed: %d %s", rec.Code, rec.Body.String())
	}
	var model ModelResponse
	json.NewDecoder(rec.Body).Decode(&model)
	if model.Variant != "suptfidf" || model.NumFeatures != 1 || model.Algorithm == "" {
		t.Errorf("unexpected model %+v", model)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/models/SupTfIdf", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for model, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/extract", "", ExtractRequest{
		TopN:          2,
		DocumentInput: DocumentInput{Document: sampleDocument()},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("extract failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp ExtractResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Variant != pipeline.SupTfIdf || resp.ModelID != model.ID {
		t.Errorf("unexpected response header fields %+v", resp)
	}
	if len(resp.Keyphrases) != 2 {
		t.Fatalf("expected 2 keyphrases, got %v", resp.Keyphrases)
	}
	if resp.Keyphrases[0].Score < resp.Keyphrases[1].Score {
		t.Errorf("keyphrases not sorted: %v", resp.Keyphrases)
	}

	other := sampleDocument()
	other.ID = "doc-2"
	rec = do(t, s, http.MethodPost, "/api/v1/extract", "", ExtractRequest{
		Documents: []DocumentInput{{Document: sampleDocument()}, {Document: other}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("batch extract failed: %d %s", rec.Code, rec.Body.String())
	}
	resp = ExtractResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Results) != 2 || resp.Results[0].ID != "doc-1" || resp.Results[1].ID != "doc-2" {
		t.Errorf("unexpected batch results %+v", resp.Results)
	}
}

func TestTrain_FeatureMismatch(t *testing.T) {
	s := newTestServer(t, nil)
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/models/kea/train", token, TrainRequest{Examples: trainingExamples()})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTrain_NoExamples(t *testing.T) {
	s := newTestServer(t, nil)
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/train", token, TrainRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAddExamples(t *testing.T) {
	t.Run("no training store", func(t *testing.T) {
		s := newTestServer(t, nil)
		token := login(t, s)

		rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/examples", token, ExamplesRequest{})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("stores labeled examples", func(t *testing.T) {
		training := &memoryTraining{}
		s := newTestServer(t, training)
		token := login(t, s)

		rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/examples", token, ExamplesRequest{
			Documents: []LabeledInput{{
				DocumentInput: DocumentInput{Document: sampleDocument()},
				References:    []string{"Graph"},
			}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]int
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["positives"] != 1 || resp["examples"] != len(training.records) {
			t.Errorf("unexpected response %v with %d stored", resp, len(training.records))
		}
		for _, r := range training.records {
			if r.Variant != "suptfidf" || r.DocumentID != "doc-1" {
				t.Errorf("unexpected record %+v", r)
			}
		}
	})
}

func TestExtract_BatchKeepsSurfaceForms(t *testing.T) {
	s := newTestServer(t, nil)
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/models/suptfidf/train", token, TrainRequest{Examples: trainingExamples()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("train failed: %d %s", rec.Code, rec.Body.String())
	}

	doc := &models.Document{
		ID: "doc-1",
		Sentences: []models.Sentence{{
			Words: []string{"Neural", "Networks", "learn"},
			Stems: []string{"neural", "network", "learn"},
			POS:   []string{"JJ", "NNS", "VBP"},
		}},
	}
	rec = do(t, s, http.MethodPost, "/api/v1/extract", "", ExtractRequest{
		TopN:      10,
		Documents: []DocumentInput{{Document: doc}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("batch extract failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp ExtractResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	found := false
	for _, kp := range resp.Results[0].Keyphrases {
		if kp.Key == "neural network" {
			found = true
			if kp.Surface != "Neural Networks" {
				t.Errorf("expected surface %q, got %q", "Neural Networks", kp.Surface)
			}
		}
	}
	if !found {
		t.Errorf("expected neural network in %v", resp.Results[0].Keyphrases)
	}
}

func TestDeleteExamples(t *testing.T) {
	training := &memoryTraining{records: []*storage.TrainingRecord{
		{Variant: "suptfidf", DocumentID: "doc-1"},
		{Variant: "kea", DocumentID: "doc-1"},
	}}
	s := newTestServer(t, training)

	rec := do(t, s, http.MethodDelete, "/api/v1/models/suptfidf/examples", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/models/suptfidf/examples", login(t, s), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(training.records) != 1 || training.records[0].Variant != "kea" {
		t.Errorf("expected only kea examples left, got %+v", training.records)
	}
}

func TestModelHistory(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/models/kea/history", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without history, got %d", rec.Code)
	}

	older := &storage.ModelRecord{ID: uuid.New(), Variant: "kea", Algorithm: "multinomial-nb", NumFeatures: 2}
	newer := &storage.ModelRecord{ID: uuid.New(), Variant: "kea", Algorithm: "logistic-regression", NumFeatures: 2}
	other := &storage.ModelRecord{ID: uuid.New(), Variant: "seerlab", Algorithm: "logistic-regression", NumFeatures: 5}
	s.config.History = &memoryHistory{records: []*storage.ModelRecord{older, other, newer}}

	rec = do(t, s, http.MethodGet, "/api/v1/models/kea/history", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var history []ModelResponse
	json.NewDecoder(rec.Body).Decode(&history)
	if len(history) != 2 || history[0].ID != newer.ID.String() || history[1].ID != older.ID.String() {
		t.Errorf("unexpected history %+v", history)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/api/v1/models/kea/history/" + older.ID.String(), http.StatusOK},
		{"other variant", "/api/v1/models/kea/history/" + other.ID.String(), http.StatusNotFound},
		{"unknown id", "/api/v1/models/kea/history/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/api/v1/models/kea/history/not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
