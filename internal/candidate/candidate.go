package candidate

import "strings"

// KeySeparator joins stems into a candidate key
const KeySeparator = " "

// Candidate is a phrase keyed by its normalized lexical form. SurfaceForms,
// Offsets and POSPatterns hold one entry per occurrence and are index-aligned.
type Candidate struct {
	Key          string
	LexicalForm  []string
	SurfaceForms [][]string
	Offsets      []int
	POSPatterns  [][]string
}

// Key builds the normalized key of a stem sequence
func Key(stems []string) string {
	return strings.Join(stems, KeySeparator)
}

// Frequency returns the number of recorded occurrences
func (c *Candidate) Frequency() int {
	return len(c.SurfaceForms)
}

// Length returns the number of tokens of the candidate
func (c *Candidate) Length() int {
	return len(c.LexicalForm)
}

// FirstOffset returns the offset of the first recorded occurrence
func (c *Candidate) FirstOffset() int {
	if len(c.Offsets) == 0 {
		return 0
	}
	return c.Offsets[0]
}

// Surface returns the first surface form joined by spaces
func (c *Candidate) Surface() string {
	if len(c.SurfaceForms) == 0 {
		return ""
	}
	return strings.Join(c.SurfaceForms[0], " ")
}

func (c *Candidate) addOccurrence(words []string, offset int, pos []string) {
	c.SurfaceForms = append(c.SurfaceForms, copyStrings(words))
	c.Offsets = append(c.Offsets, offset)
	c.POSPatterns = append(c.POSPatterns, copyStrings(pos))
}

// keep returns a copy of the candidate restricted to the given occurrence indices
func (c *Candidate) keep(indices []int) *Candidate {
	kept := &Candidate{
		Key:          c.Key,
		LexicalForm:  c.LexicalForm,
		SurfaceForms: make([][]string, 0, len(indices)),
		Offsets:      make([]int, 0, len(indices)),
		POSPatterns:  make([][]string, 0, len(indices)),
	}
	for _, i := range indices {
		kept.SurfaceForms = append(kept.SurfaceForms, c.SurfaceForms[i])
		kept.Offsets = append(kept.Offsets, c.Offsets[i])
		kept.POSPatterns = append(kept.POSPatterns, c.POSPatterns[i])
	}
	return kept
}

// Store holds the candidates of one document in first-occurrence order
type Store struct {
	order []string
	byKey map[string]*Candidate
}

// NewStore creates an empty candidate store
func NewStore() *Store {
	return &Store{
		order: make([]string, 0, 64),
		byKey: make(map[string]*Candidate, 64),
	}
}

// LookupOrInsert returns the candidate for key, creating it with the given
// lexical form when absent. The second result reports whether it was created.
func (s *Store) LookupOrInsert(key string, lexicalForm []string) (*Candidate, bool) {
	if c, ok := s.byKey[key]; ok {
		return c, false
	}
	c := &Candidate{
		Key:          key,
		LexicalForm:  copyStrings(lexicalForm),
		SurfaceForms: make([][]string, 0, 1),
		Offsets:      make([]int, 0, 1),
		POSPatterns:  make([][]string, 0, 1),
	}
	s.byKey[key] = c
	s.order = append(s.order, key)
	return c, true
}

// Add records one occurrence of the span, creating the candidate if needed
func (s *Store) Add(words, stems, pos []string, offset int) *Candidate {
	c, _ := s.LookupOrInsert(Key(stems), stems)
	c.addOccurrence(words, offset, pos)
	return c
}

// Get returns the candidate for key
func (s *Store) Get(key string) (*Candidate, bool) {
	c, ok := s.byKey[key]
	return c, ok
}

// Has reports whether key is tracked
func (s *Store) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Len returns the number of candidates
func (s *Store) Len() int {
	return len(s.order)
}

// Keys returns candidate keys in first-occurrence order
func (s *Store) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Candidates returns the candidates in first-occurrence order
func (s *Store) Candidates() []*Candidate {
	result := make([]*Candidate, len(s.order))
	for i, k := range s.order {
		result[i] = s.byKey[k]
	}
	return result
}

// Retain builds a new store holding only the candidates for which keep
// returns true. The receiver is left untouched.
func (s *Store) Retain(keep func(*Candidate) bool) *Store {
	out := NewStore()
	for _, k := range s.order {
		c := s.byKey[k]
		if keep(c) {
			out.insert(c)
		}
	}
	return out
}

// Map builds a new store from the result of fn on every candidate; a nil
// result drops the candidate.
func (s *Store) Map(fn func(*Candidate) *Candidate) *Store {
	out := NewStore()
	for _, k := range s.order {
		if c := fn(s.byKey[k]); c != nil {
			out.insert(c)
		}
	}
	return out
}

func (s *Store) insert(c *Candidate) {
	if _, ok := s.byKey[c.Key]; !ok {
		s.order = append(s.order, c.Key)
	}
	s.byKey[c.Key] = c
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
