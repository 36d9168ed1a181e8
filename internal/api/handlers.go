package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/document"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
	"github.com/todmy/keyphrase-extractor/internal/trainer"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DocumentInput is either raw text or a pre-processed document
type DocumentInput struct {
	ID       string           `json:"id,omitempty"`
	Text     string           `json:"text,omitempty"`
	Document *models.Document `json:"document,omitempty"`
}

func (s *Server) resolveDocument(in DocumentInput) (models.Document, error) {
	if in.Document != nil {
		doc := *in.Document
		if doc.ID == "" {
			doc.ID = in.ID
		}
		return doc, nil
	}
	if strings.TrimSpace(in.Text) == "" {
		return models.Document{}, errors.New("text or document is required")
	}
	return s.config.TextBuilder.Build(in.ID, in.Text)
}

type ExtractRequest struct {
	Variant string `json:"variant,omitempty"`
	TopN    int    `json:"top_n,omitempty"`
	DocumentInput
	Documents []DocumentInput `json:"documents,omitempty"`
}

type DocumentKeyphrases struct {
	ID         string             `json:"id,omitempty"`
	Keyphrases []models.Keyphrase `json:"keyphrases"`
}

type ExtractResponse struct {
	Variant    pipeline.Variant     `json:"variant"`
	ModelID    string               `json:"model_id"`
	Keyphrases []models.Keyphrase   `json:"keyphrases,omitempty"`
	Results    []DocumentKeyphrases `json:"results,omitempty"`
}

func (s *Server) variantOrDefault(name string) (pipeline.Variant, error) {
	if name == "" {
		return s.config.DefaultVariant, nil
	}
	return pipeline.ParseVariant(name)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	variant, err := s.variantOrDefault(req.Variant)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	topN := req.TopN
	if topN <= 0 {
		topN = s.config.TopN
	}

	model, err := s.models.get(r.Context(), variant)
	if err != nil {
		s.respondModelError(w, variant, err)
		return
	}
	p := s.pipelines[variant]
	resp := ExtractResponse{Variant: variant, ModelID: model.artifact.ID.String()}

	if len(req.Documents) == 0 {
		doc, err := s.resolveDocument(req.DocumentInput)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		keyphrases, err := p.ExtractKeyphrases(doc, model.clf, topN)
		if err != nil {
			s.respondPipelineError(w, err)
			return
		}
		resp.Keyphrases = keyphrases
		respondJSON(w, http.StatusOK, resp)
		return
	}

	docs := make([]models.Document, len(req.Documents))
	for i, in := range req.Documents {
		doc, err := s.resolveDocument(in)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("document %d: %v", i, err))
			return
		}
		docs[i] = doc
	}

	start := time.Now()
	ranked, err := p.ExtractBatchKeyphrases(r.Context(), docs, model.clf, s.config.Workers, topN)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.logger.Debug("extracted %d documents with %s in %v", len(docs), variant, time.Since(start))

	resp.Results = make([]DocumentKeyphrases, len(docs))
	for i, doc := range docs {
		resp.Results[i] = DocumentKeyphrases{ID: doc.ID, Keyphrases: ranked[i]}
	}
	respondJSON(w, http.StatusOK, resp)
}

type ModelResponse struct {
	ID          string    `json:"id"`
	Variant     string    `json:"variant"`
	Algorithm   string    `json:"algorithm"`
	NumFeatures int       `json:"num_features"`
	CreatedAt   time.Time `json:"created_at"`
}

func newModelResponse(v pipeline.Variant, a *classifier.Artifact) ModelResponse {
	return ModelResponse{
		ID:          a.ID.String(),
		Variant:     string(v),
		Algorithm:   a.Algorithm,
		NumFeatures: a.NumFeatures,
		CreatedAt:   a.CreatedAt,
	}
}

func (s *Server) pathVariant(w http.ResponseWriter, r *http.Request) (pipeline.Variant, bool) {
	v, err := pipeline.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return v, true
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}

	model, err := s.models.get(r.Context(), variant)
	if err != nil {
		s.respondModelError(w, variant, err)
		return
	}
	respondJSON(w, http.StatusOK, newModelResponse(variant, model.artifact))
}

func newRecordResponse(rec *storage.ModelRecord) ModelResponse {
	return ModelResponse{
		ID:          rec.ID.String(),
		Variant:     rec.Variant,
		Algorithm:   rec.Algorithm,
		NumFeatures: rec.NumFeatures,
		CreatedAt:   rec.CreatedAt,
	}
}

func (s *Server) handleModelHistory(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}
	if s.config.History == nil {
		respondError(w, http.StatusServiceUnavailable, "no model history configured")
		return
	}

	records, err := s.config.History.ListByVariant(r.Context(), string(variant))
	if err != nil {
		s.logger.Error("failed to list %s models: %v", variant, err)
		respondError(w, http.StatusInternalServerError, "failed to list models")
		return
	}

	resp := make([]ModelResponse, len(records))
	for i, rec := range records {
		resp[i] = newRecordResponse(rec)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetModelVersion(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}
	if s.config.History == nil {
		respondError(w, http.StatusServiceUnavailable, "no model history configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	rec, err := s.config.History.GetByID(r.Context(), id)
	if err == nil && rec.Variant != string(variant) {
		err = storage.ErrModelNotFound
	}
	if err != nil {
		s.respondModelError(w, variant, err)
		return
	}
	respondJSON(w, http.StatusOK, newRecordResponse(rec))
}

type TrainRequest struct {
	Algorithm string                   `json:"algorithm,omitempty"`
	Examples  []models.TrainingExample `json:"examples,omitempty"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}

	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := s.pipelines[variant]
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = p.Strategy().DefaultAlgorithm()
	}

	mu := s.trainMu[variant]
	mu.Lock()
	defer mu.Unlock()

	examples := req.Examples
	if len(examples) == 0 && s.config.Training != nil {
		records, err := s.config.Training.GetByVariant(r.Context(), string(variant))
		if err != nil {
			s.logger.Error("failed to load training examples for %s: %v", variant, err)
			respondError(w, http.StatusInternalServerError, "failed to load training examples")
			return
		}
		examples = storage.Examples(records)
	}

	X, y := trainer.Split(examples)
	for i, row := range X {
		if len(row) != p.NumFeatures() {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("example %d has %d features, %s expects %d", i, len(row), variant, p.NumFeatures()))
			return
		}
	}

	clf, err := trainer.Fit(X, y, algorithm)
	if err != nil {
		var iae *trainer.InvalidArgumentError
		if errors.As(err, &iae) || errors.Is(err, classifier.ErrSingleClass) || errors.Is(err, classifier.ErrNegativeFeature) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to train %s: %v", variant, err)
		respondError(w, http.StatusInternalServerError, "failed to train model")
		return
	}

	artifact, err := s.models.save(r.Context(), variant, clf)
	if err != nil {
		s.logger.Error("failed to save %s model: %v", variant, err)
		respondError(w, http.StatusInternalServerError, "failed to save model")
		return
	}

	s.logger.Info("trained %s model %s on %d examples", variant, artifact.ID, len(examples))
	respondJSON(w, http.StatusCreated, newModelResponse(variant, artifact))
}

// LabeledInput is a document with its gold keyphrases as plain phrases
type LabeledInput struct {
	DocumentInput
	References []string `json:"references"`
}

type ExamplesRequest struct {
	Documents []LabeledInput `json:"documents"`
}

func (s *Server) handleAddExamples(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}
	if s.config.Training == nil {
		respondError(w, http.StatusServiceUnavailable, "no training store configured")
		return
	}

	var req ExamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		respondError(w, http.StatusBadRequest, "documents are required")
		return
	}

	stem := s.config.TextBuilder.Stem
	var records []*storage.TrainingRecord
	training := s.pipelines[variant].WithTraining(true)

	for i, in := range req.Documents {
		doc, err := s.resolveDocument(in.DocumentInput)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("document %d: %v", i, err))
			return
		}

		refs := make([]string, len(in.References))
		for j, ref := range in.References {
			refs[j] = document.StemPhrase(ref, stem)
		}

		examples, err := trainer.BuildExamples(training, []trainer.LabeledDocument{{Document: doc, References: refs}})
		if err != nil {
			s.respondPipelineError(w, err)
			return
		}
		for _, ex := range examples {
			records = append(records, storage.NewTrainingRecord(string(variant), doc.ID, ex))
		}
	}

	if err := s.config.Training.CreateBatch(r.Context(), records); err != nil {
		s.logger.Error("failed to store training examples for %s: %v", variant, err)
		respondError(w, http.StatusInternalServerError, "failed to store training examples")
		return
	}

	positives := 0
	for _, rec := range records {
		positives += rec.Label
	}
	respondJSON(w, http.StatusCreated, map[string]int{"examples": len(records), "positives": positives})
}

func (s *Server) handleDeleteExamples(w http.ResponseWriter, r *http.Request) {
	variant, ok := s.pathVariant(w, r)
	if !ok {
		return
	}
	if s.config.Training == nil {
		respondError(w, http.StatusServiceUnavailable, "no training store configured")
		return
	}

	mu := s.trainMu[variant]
	mu.Lock()
	defer mu.Unlock()

	if err := s.config.Training.DeleteByVariant(r.Context(), string(variant)); err != nil {
		s.logger.Error("failed to delete training examples for %s: %v", variant, err)
		respondError(w, http.StatusInternalServerError, "failed to delete training examples")
		return
	}

	s.logger.Info("deleted training examples for %s", variant)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondModelError(w http.ResponseWriter, v pipeline.Variant, err error) {
	if errors.Is(err, storage.ErrModelNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no model trained for %s", v))
		return
	}
	s.logger.Error("failed to load %s model: %v", v, err)
	respondError(w, http.StatusInternalServerError, "failed to load model")
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	var de *classifier.DeserializationError
	switch {
	case errors.Is(err, pipeline.ErrMalformedDocument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &de):
		s.logger.Error("model does not fit pipeline: %v", err)
		respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("extraction failed: %v", err)
		respondError(w, http.StatusInternalServerError, "extraction failed")
	}
}
