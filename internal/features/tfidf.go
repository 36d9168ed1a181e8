package features

import "math"

// DefaultCorpusSize is the number of documents assumed when computing IDF
// without an explicit corpus size.
const DefaultCorpusSize = 144

// DocumentFrequency looks up how many corpus documents contain a candidate key
type DocumentFrequency interface {
	Lookup(key string) int
}

// Frequencies is an in-memory document frequency table
type Frequencies map[string]int

// Lookup returns the count for key, 0 when unseen
func (f Frequencies) Lookup(key string) int {
	return f[key]
}

// TermWeight holds the TF-IDF computation for one candidate
type TermWeight struct {
	TF          int
	EffectiveDF int
	IDF         float64
	Weight      float64
}

// TFIDF computes the weight of a candidate occurring tf times whose raw
// document frequency is dfRaw in a corpus of n documents. In training mode
// the effective frequency is decremented unless it is already 1, since the
// training document is counted in its own frequency.
func TFIDF(tf, dfRaw, n int, training bool) TermWeight {
	if dfRaw < 0 {
		dfRaw = 0
	}
	df := 1 + dfRaw
	if training && df != 1 {
		df--
	}
	idf := math.Log2(float64(n+1) / float64(df))
	return TermWeight{
		TF:          tf,
		EffectiveDF: df,
		IDF:         idf,
		Weight:      float64(tf) * idf,
	}
}
