package features

import "github.com/todmy/keyphrase-extractor/internal/candidate"

// Context carries the document-level and corpus-level inputs of feature
// extraction.
type Context struct {
	DF        DocumentFrequency
	N         int
	Training  bool
	MaxOffset float64
}

// Weight computes the TF-IDF of a candidate in this context
func (c Context) Weight(cand *candidate.Candidate) TermWeight {
	df := 0
	if c.DF != nil {
		df = c.DF.Lookup(cand.Key)
	}
	n := c.N
	if n <= 0 {
		n = DefaultCorpusSize
	}
	return TFIDF(cand.Frequency(), df, n, c.Training)
}

// Position returns the relative offset of the first occurrence
func (c Context) Position(cand *candidate.Candidate) float64 {
	if c.MaxOffset <= 0 {
		return 0
	}
	return float64(cand.FirstOffset()) / c.MaxOffset
}

// Extractor maps a candidate to a feature vector of fixed length
type Extractor interface {
	Dim() int
	Extract(cand *candidate.Candidate, ctx Context) []float64
}

// Extract builds the instances of every candidate of the store
func Extract(store *candidate.Store, ex Extractor, ctx Context) *Instances {
	in := NewInstances(ex.Dim(), store.Len())
	for _, c := range store.Candidates() {
		in.Set(c.Key, ex.Extract(c, ctx))
	}
	return in
}

// PositionalTFIDF yields [tf*idf, first offset / max offset]
type PositionalTFIDF struct{}

func (PositionalTFIDF) Dim() int { return 2 }

func (PositionalTFIDF) Extract(c *candidate.Candidate, ctx Context) []float64 {
	return []float64{ctx.Weight(c).Weight, ctx.Position(c)}
}

// PositionalTFIDFLength yields [tf*idf, first offset / max offset, token length]
type PositionalTFIDFLength struct{}

func (PositionalTFIDFLength) Dim() int { return 3 }

func (PositionalTFIDFLength) Extract(c *candidate.Candidate, ctx Context) []float64 {
	return []float64{ctx.Weight(c).Weight, ctx.Position(c), float64(c.Length())}
}

// LexicalStatistics yields [token length, acronym flag, tf, effective df, tf*idf]
type LexicalStatistics struct{}

func (LexicalStatistics) Dim() int { return 5 }

func (LexicalStatistics) Extract(c *candidate.Candidate, ctx Context) []float64 {
	w := ctx.Weight(c)
	acronym := 0.0
	for _, form := range c.SurfaceForms {
		if candidate.IsAcronym(form) {
			acronym = 1
			break
		}
	}
	return []float64{
		float64(c.Length()),
		acronym,
		float64(w.TF),
		float64(w.EffectiveDF),
		w.Weight,
	}
}

// TFIDFOnly yields [tf*idf]
type TFIDFOnly struct{}

func (TFIDFOnly) Dim() int { return 1 }

func (TFIDFOnly) Extract(c *candidate.Candidate, ctx Context) []float64 {
	return []float64{ctx.Weight(c).Weight}
}
