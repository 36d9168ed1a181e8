package trainer

import (
	"fmt"

	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// LabeledDocument is a document with its gold keyphrases, given as
// candidate keys (stems joined by a space).
type LabeledDocument struct {
	Document   models.Document
	References []string
}

// BuildExamples selects candidates and extracts features for every document
// with the resources of p, labeling an instance 1 when its key is a
// reference of the document.
func BuildExamples(p *pipeline.Pipeline, docs []LabeledDocument) ([]models.TrainingExample, error) {
	var examples []models.TrainingExample

	for i, ld := range docs {
		gold := make(map[string]struct{}, len(ld.References))
		for _, ref := range ld.References {
			gold[ref] = struct{}{}
		}

		s := p.NewSession(ld.Document)
		if err := s.SelectCandidates(); err != nil {
			return nil, fmt.Errorf("failed to select candidates of document %d (%s): %w", i, ld.Document.ID, err)
		}
		if err := s.ExtractFeatures(); err != nil {
			return nil, fmt.Errorf("failed to extract features of document %d (%s): %w", i, ld.Document.ID, err)
		}
		instances, err := s.Instances()
		if err != nil {
			return nil, err
		}

		for j, key := range instances.Keys() {
			features := make([]float64, instances.Dim())
			copy(features, instances.Row(j))

			label := 0
			if _, ok := gold[key]; ok {
				label = 1
			}
			examples = append(examples, models.TrainingExample{Key: key, Features: features, Label: label})
		}
	}

	return examples, nil
}
