package pipeline

import (
	"fmt"
	"strings"

	"github.com/todmy/keyphrase-extractor/internal/candidate"
	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/features"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// Variant names a candidate selection and feature policy
type Variant string

const (
	Kea      Variant = "kea"
	WINGNUS  Variant = "wingnus"
	SEERLAB  Variant = "seerlab"
	SupTfIdf Variant = "suptfidf"
)

// Variants lists every supported variant
func Variants() []Variant {
	return []Variant{Kea, WINGNUS, SEERLAB, SupTfIdf}
}

// ParseVariant resolves a case-insensitive variant name
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Resources holds the corpus-level inputs shared by every document.
//
// Zero-valued fields take the DefaultResources value when a pipeline is
// built. For MostFrequentUnigrams and MostFrequentNonUnigrams a negative
// value keeps no candidates of that kind, so -1 for both leaves acronyms only.
type Resources struct {
	DF                      features.DocumentFrequency
	N                       int
	Training                bool
	Stoplist                candidate.Stoplist
	Gazetteer               candidate.Gazetteer
	MostFrequentUnigrams    int
	MostFrequentNonUnigrams int
}

// DefaultResources returns resources with an empty df table and the English stoplist
func DefaultResources() Resources {
	return Resources{
		DF:                      features.Frequencies{},
		N:                       features.DefaultCorpusSize,
		Stoplist:                candidate.English(),
		MostFrequentUnigrams:    30,
		MostFrequentNonUnigrams: 30,
	}
}

func (r Resources) withDefaults() Resources {
	d := DefaultResources()
	if r.DF == nil {
		r.DF = d.DF
	}
	if r.N <= 0 {
		r.N = d.N
	}
	if r.Stoplist == nil {
		r.Stoplist = d.Stoplist
	}
	if r.MostFrequentUnigrams == 0 {
		r.MostFrequentUnigrams = d.MostFrequentUnigrams
	}
	if r.MostFrequentNonUnigrams == 0 {
		r.MostFrequentNonUnigrams = d.MostFrequentNonUnigrams
	}
	return r
}

// Strategy is the variant-specific part of the pipeline
type Strategy interface {
	Variant() Variant
	SelectCandidates(doc models.Document, res Resources) *candidate.Store
	Extractor() features.Extractor
	Scaled() bool
	DefaultAlgorithm() string
}

// NewStrategy returns the strategy of a variant
func NewStrategy(v Variant) (Strategy, error) {
	switch v {
	case Kea:
		return KeaStrategy{}, nil
	case WINGNUS:
		return WINGNUSStrategy{}, nil
	case SEERLAB:
		return SEERLABStrategy{}, nil
	case SupTfIdf:
		return SupTfIdfStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
}

// KeaStrategy selects 1-3 grams that neither contain punctuation nor start
// or end with a stopword, described by TF-IDF and first position.
type KeaStrategy struct{}

func (KeaStrategy) Variant() Variant { return Kea }

func (KeaStrategy) SelectCandidates(doc models.Document, res Resources) *candidate.Store {
	return candidate.Apply(candidate.Generate(doc, 3),
		candidate.TokenSet(),
		candidate.StopwordBoundary(res.Stoplist),
	)
}

func (KeaStrategy) Extractor() features.Extractor { return features.PositionalTFIDF{} }
func (KeaStrategy) Scaled() bool                  { return true }
func (KeaStrategy) DefaultAlgorithm() string      { return classifier.AlgorithmNaiveBayes }

// WINGNUSStrategy selects 1-4 grams whose occurrences are simplex noun
// phrases or noun phrases with a prepositional attachment.
type WINGNUSStrategy struct{}

func (WINGNUSStrategy) Variant() Variant { return WINGNUS }

func (WINGNUSStrategy) SelectCandidates(doc models.Document, res Resources) *candidate.Store {
	return candidate.Apply(candidate.Generate(doc, 4),
		candidate.TokenSet(),
		candidate.NounPhrasePattern(),
	)
}

func (WINGNUSStrategy) Extractor() features.Extractor { return features.PositionalTFIDFLength{} }
func (WINGNUSStrategy) Scaled() bool                  { return true }
func (WINGNUSStrategy) DefaultAlgorithm() string      { return classifier.AlgorithmNaiveBayes }

// SEERLABStrategy keeps the most frequent stopword-free 1-4 grams and
// acronyms, then recovers gazetteer phrases. Features are left unscaled.
type SEERLABStrategy struct{}

func (SEERLABStrategy) Variant() Variant { return SEERLAB }

func (SEERLABStrategy) SelectCandidates(doc models.Document, res Resources) *candidate.Store {
	return candidate.Apply(candidate.Generate(doc, 4),
		candidate.StopwordContains(res.Stoplist),
		candidate.MostFrequent(res.MostFrequentUnigrams, res.MostFrequentNonUnigrams),
		candidate.GazetteerMatch(doc, res.Gazetteer),
	)
}

func (SEERLABStrategy) Extractor() features.Extractor { return features.LexicalStatistics{} }
func (SEERLABStrategy) Scaled() bool                  { return false }
func (SEERLABStrategy) DefaultAlgorithm() string      { return classifier.AlgorithmLogistic }

// SupTfIdfStrategy selects punctuation-free 1-3 grams described by TF-IDF alone
type SupTfIdfStrategy struct{}

func (SupTfIdfStrategy) Variant() Variant { return SupTfIdf }

func (SupTfIdfStrategy) SelectCandidates(doc models.Document, res Resources) *candidate.Store {
	return candidate.Apply(candidate.Generate(doc, 3), candidate.TokenSet())
}

func (SupTfIdfStrategy) Extractor() features.Extractor { return features.TFIDFOnly{} }
func (SupTfIdfStrategy) Scaled() bool                  { return true }
func (SupTfIdfStrategy) DefaultAlgorithm() string      { return classifier.AlgorithmNaiveBayes }
