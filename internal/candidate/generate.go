package candidate

import "github.com/todmy/keyphrase-extractor/pkg/models"

// Generate enumerates every n-gram of 1 to n tokens within each sentence and
// records one occurrence per span.
func Generate(doc models.Document, n int) *Store {
	store := NewStore()
	if n <= 0 {
		return store
	}

	offsets := doc.Offsets()
	for si, sentence := range doc.Sentences {
		length := sentence.Length()
		for i := 0; i < length; i++ {
			end := i + n
			if end > length {
				end = length
			}
			for j := i + 1; j <= end; j++ {
				store.Add(sentence.Words[i:j], sentence.Stems[i:j], sentence.POS[i:j], offsets[si]+i)
			}
		}
	}

	return store
}
