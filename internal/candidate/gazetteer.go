package candidate

import "github.com/todmy/keyphrase-extractor/pkg/models"

// gazetteerWindow bounds the longest span tried by the gazetteer scan
const gazetteerWindow = 4

// Gazetteer is a set of valid candidate keys
type Gazetteer map[string]struct{}

// NewGazetteer builds a gazetteer from the given keys
func NewGazetteer(keys ...string) Gazetteer {
	g := make(Gazetteer, len(keys))
	for _, k := range keys {
		g[k] = struct{}{}
	}
	return g
}

// Contains reports whether key is in the gazetteer
func (g Gazetteer) Contains(key string) bool {
	_, ok := g[key]
	return ok
}

// GazetteerMatch scans every sentence for spans whose key is in the
// gazetteer and not yet tracked. Matching is greedy longest-first and
// non-overlapping: after a match the scan resumes past the matched span.
func GazetteerMatch(doc models.Document, gazetteer Gazetteer) Filter {
	return func(s *Store) *Store {
		out := s.Retain(func(*Candidate) bool { return true })
		if len(gazetteer) == 0 {
			return out
		}

		offsets := doc.Offsets()
		for si, sentence := range doc.Sentences {
			length := sentence.Length()
			window := gazetteerWindow
			if length < window {
				window = length
			}

			j := 0
			for j < length {
				longest := j + window
				if longest > length {
					longest = length
				}
				next := j + 1
				for k := longest; k > j; k-- {
					key := Key(sentence.Stems[j:k])
					if gazetteer.Contains(key) && !out.Has(key) {
						out.Add(sentence.Words[j:k], sentence.Stems[j:k], sentence.POS[j:k], offsets[si]+j)
						next = k
						break
					}
				}
				j = next
			}
		}

		return out
	}
}
