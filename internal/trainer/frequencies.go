package trainer

import (
	"github.com/todmy/keyphrase-extractor/internal/candidate"
	"github.com/todmy/keyphrase-extractor/internal/storage"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// FrequencyNGrams is the longest n-gram counted by CountFrequencies
const FrequencyNGrams = 3

// CountFrequencies counts, for every n-gram key of up to FrequencyNGrams
// tokens without punctuation, the number of docs containing it.
func CountFrequencies(docs []models.Document) *storage.FrequencyTable {
	counts := make(map[string]int)
	for _, doc := range docs {
		store := candidate.Apply(candidate.Generate(doc, FrequencyNGrams), candidate.TokenSet())
		for _, key := range store.Keys() {
			counts[key]++
		}
	}
	return storage.NewFrequencyTable(counts, len(docs))
}
