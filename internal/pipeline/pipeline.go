package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// Pipeline binds a strategy to its corpus resources. It holds no
// per-document state and may be shared between goroutines.
type Pipeline struct {
	strategy  Strategy
	resources Resources
}

// New creates a pipeline, filling unset resources with defaults
func New(strategy Strategy, res Resources) *Pipeline {
	return &Pipeline{strategy: strategy, resources: res.withDefaults()}
}

// NewForVariant creates a pipeline with the built-in strategy of v
func NewForVariant(v Variant, res Resources) (*Pipeline, error) {
	strategy, err := NewStrategy(v)
	if err != nil {
		return nil, err
	}
	return New(strategy, res), nil
}

// Strategy returns the variant strategy
func (p *Pipeline) Strategy() Strategy {
	return p.strategy
}

// Variant returns the variant of the strategy
func (p *Pipeline) Variant() Variant {
	return p.strategy.Variant()
}

// Resources returns the corpus resources
func (p *Pipeline) Resources() Resources {
	return p.resources
}

// NumFeatures returns the length of every feature vector produced
func (p *Pipeline) NumFeatures() int {
	return p.strategy.Extractor().Dim()
}

// WithTraining returns a copy of the pipeline in training mode
func (p *Pipeline) WithTraining(training bool) *Pipeline {
	res := p.resources
	res.Training = training
	return &Pipeline{strategy: p.strategy, resources: res}
}

// CheckClassifier rejects a classifier fitted on another feature layout
func (p *Pipeline) CheckClassifier(clf classifier.Classifier) error {
	if clf.NumFeatures() != p.NumFeatures() {
		return &classifier.DeserializationError{
			Err: fmt.Errorf("%w: model has %d features, %s produces %d",
				classifier.ErrFeatureMismatch, clf.NumFeatures(), p.Variant(), p.NumFeatures()),
		}
	}
	return nil
}

// NewSession starts the stage sequence for doc
func (p *Pipeline) NewSession(doc models.Document) *Session {
	return &Session{pipeline: p, doc: doc, state: Created}
}

// Run selects candidates, extracts features and classifies them
func (p *Pipeline) Run(doc models.Document, clf classifier.Classifier) (*Session, error) {
	s := p.NewSession(doc)
	if err := s.SelectCandidates(); err != nil {
		return nil, err
	}
	if err := s.ExtractFeatures(); err != nil {
		return nil, err
	}
	if err := s.Classify(clf); err != nil {
		return nil, err
	}
	return s, nil
}

// Extract returns the score of every candidate of doc
func (p *Pipeline) Extract(doc models.Document, clf classifier.Classifier) (map[string]float64, error) {
	s, err := p.Run(doc, clf)
	if err != nil {
		return nil, err
	}
	return s.weights, nil
}

// ExtractKeyphrases returns the topN keyphrases of doc, all when topN <= 0
func (p *Pipeline) ExtractKeyphrases(doc models.Document, clf classifier.Classifier, topN int) ([]models.Keyphrase, error) {
	s, err := p.Run(doc, clf)
	if err != nil {
		return nil, err
	}
	return s.Keyphrases(topN)
}

// ExtractBatch scores docs concurrently with at most workers goroutines.
// Results are in the order of docs. The first failure cancels the
// remaining documents.
func (p *Pipeline) ExtractBatch(ctx context.Context, docs []models.Document, clf classifier.Classifier, workers int) ([]map[string]float64, error) {
	sessions, err := p.runBatch(ctx, docs, clf, workers)
	if err != nil {
		return nil, err
	}
	results := make([]map[string]float64, len(sessions))
	for i, s := range sessions {
		results[i] = s.weights
	}
	return results, nil
}

// ExtractBatchKeyphrases is ExtractBatch ranked per document like
// ExtractKeyphrases.
func (p *Pipeline) ExtractBatchKeyphrases(ctx context.Context, docs []models.Document, clf classifier.Classifier, workers, topN int) ([][]models.Keyphrase, error) {
	sessions, err := p.runBatch(ctx, docs, clf, workers)
	if err != nil {
		return nil, err
	}
	results := make([][]models.Keyphrase, len(sessions))
	for i, s := range sessions {
		if results[i], err = s.Keyphrases(topN); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (p *Pipeline) runBatch(ctx context.Context, docs []models.Document, clf classifier.Classifier, workers int) ([]*Session, error) {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessions := make([]*Session, len(docs))
	sem := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i := range docs {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := p.Run(docs[idx], clf)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("document %d (%s): %w", idx, docs[idx].ID, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			sessions[idx] = s
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Rank orders weights by descending score, breaking ties by key, and keeps
// the first topN. surfaces may be nil.
func Rank(weights map[string]float64, surfaces map[string]string, topN int) []models.Keyphrase {
	out := make([]models.Keyphrase, 0, len(weights))
	for key, score := range weights {
		kp := models.Keyphrase{Key: key, Surface: key, Score: score}
		if s, ok := surfaces[key]; ok && s != "" {
			kp.Surface = s
		}
		out = append(out, kp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
