package pipeline

import (
	"errors"
	"fmt"

	"github.com/todmy/keyphrase-extractor/internal/candidate"
	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/features"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

var (
	ErrInvalidState      = errors.New("pipeline stage invoked out of order")
	ErrUnknownVariant    = errors.New("unknown pipeline variant")
	ErrMalformedDocument = errors.New("sentence arrays differ in length")
	ErrNoClassifier      = errors.New("no classifier provided")
)

// State is the position of a session in the extraction sequence
type State int

const (
	Created State = iota
	CandidatesSelected
	FeaturesExtracted
	Scored
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case CandidatesSelected:
		return "candidates-selected"
	case FeaturesExtracted:
		return "features-extracted"
	case Scored:
		return "scored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateError reports a stage invoked before its predecessor
type StateError struct {
	Op       string
	State    State
	Required State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s: requires %s", e.Op, e.State, e.Required)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// Session holds the candidates, instances and weights of one document.
// A session is not safe for concurrent use.
type Session struct {
	pipeline   *Pipeline
	doc        models.Document
	state      State
	candidates *candidate.Store
	instances  *features.Instances
	weights    map[string]float64
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

func (s *Session) require(op string, required State) error {
	if s.state < required {
		return &StateError{Op: op, State: s.state, Required: required}
	}
	return nil
}

// SelectCandidates generates and filters the candidates of the document,
// discarding anything computed before.
func (s *Session) SelectCandidates() error {
	if err := validateDocument(s.doc); err != nil {
		return err
	}
	s.candidates = s.pipeline.strategy.SelectCandidates(s.doc, s.pipeline.resources)
	s.instances = nil
	s.weights = nil
	s.state = CandidatesSelected
	return nil
}

// ExtractFeatures computes the feature vector of every candidate and scales
// them when the strategy requires it.
func (s *Session) ExtractFeatures() error {
	if err := s.require("extract features", CandidatesSelected); err != nil {
		return err
	}

	res := s.pipeline.resources
	ctx := features.Context{
		DF:        res.DF,
		N:         res.N,
		Training:  res.Training,
		MaxOffset: float64(s.doc.TokenCount()),
	}

	instances := features.Extract(s.candidates, s.pipeline.strategy.Extractor(), ctx)
	if s.pipeline.strategy.Scaled() {
		features.Scale(instances)
	}

	s.instances = instances
	s.weights = nil
	s.state = FeaturesExtracted
	return nil
}

// Classify scores every instance with the positive-class probability of clf
func (s *Session) Classify(clf classifier.Classifier) error {
	if err := s.require("classify candidates", FeaturesExtracted); err != nil {
		return err
	}
	if clf == nil {
		return ErrNoClassifier
	}
	if err := s.pipeline.CheckClassifier(clf); err != nil {
		return err
	}

	weights := make(map[string]float64, s.instances.Len())
	if s.instances.Len() > 0 {
		probs, err := clf.PredictProba(s.instances.Matrix())
		if err != nil {
			return fmt.Errorf("failed to classify candidates: %w", err)
		}
		if len(probs) != s.instances.Len() {
			return fmt.Errorf("failed to classify candidates: %w: %d probabilities for %d instances",
				classifier.ErrDimensionMismatch, len(probs), s.instances.Len())
		}
		for i, key := range s.instances.Keys() {
			weights[key] = probs[i]
		}
	}

	s.weights = weights
	s.state = Scored
	return nil
}

// Candidates returns the selected candidates
func (s *Session) Candidates() (*candidate.Store, error) {
	if err := s.require("read candidates", CandidatesSelected); err != nil {
		return nil, err
	}
	return s.candidates, nil
}

// Instances returns the extracted feature vectors
func (s *Session) Instances() (*features.Instances, error) {
	if err := s.require("read instances", FeaturesExtracted); err != nil {
		return nil, err
	}
	return s.instances, nil
}

// Weights returns a copy of the candidate scores
func (s *Session) Weights() (map[string]float64, error) {
	if err := s.require("read weights", Scored); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out, nil
}

// Keyphrases returns the topN candidates by score, all when topN <= 0
func (s *Session) Keyphrases(topN int) ([]models.Keyphrase, error) {
	weights, err := s.Weights()
	if err != nil {
		return nil, err
	}
	surfaces := make(map[string]string, len(weights))
	for key := range weights {
		if c, ok := s.candidates.Get(key); ok {
			surfaces[key] = c.Surface()
		}
	}
	return Rank(weights, surfaces, topN), nil
}

func validateDocument(doc models.Document) error {
	for i, s := range doc.Sentences {
		if len(s.Stems) != len(s.Words) || len(s.POS) != len(s.Words) {
			return fmt.Errorf("%w: sentence %d has %d words, %d stems, %d tags",
				ErrMalformedDocument, i, len(s.Words), len(s.Stems), len(s.POS))
		}
	}
	return nil
}
