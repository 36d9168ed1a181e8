package models

// Sentence is a tokenized, tagged and stemmed sentence. Words, Stems and POS
// are parallel arrays.
type Sentence struct {
	Words []string `json:"words"`
	Stems []string `json:"stems"`
	POS   []string `json:"pos"`
}

// Length returns the number of tokens in the sentence
func (s Sentence) Length() int {
	return len(s.Words)
}

// Document represents a pre-processed document as an ordered sequence of sentences
type Document struct {
	ID        string     `json:"id,omitempty"`
	Sentences []Sentence `json:"sentences"`
}

// Offsets returns the document-wide offset of the first token of each sentence
func (d Document) Offsets() []int {
	offsets := make([]int, len(d.Sentences))
	shift := 0
	for i, s := range d.Sentences {
		offsets[i] = shift
		shift += s.Length()
	}
	return offsets
}

// TokenCount returns the total number of tokens across all sentences
func (d Document) TokenCount() int {
	total := 0
	for _, s := range d.Sentences {
		total += s.Length()
	}
	return total
}

// Keyphrase is a scored candidate in a ranked keyphrase list
type Keyphrase struct {
	Key     string  `json:"key"`
	Surface string  `json:"surface"`
	Score   float64 `json:"score"`
}

// TrainingExample is a feature vector with its binary gold label
type TrainingExample struct {
	Key      string    `json:"key,omitempty"`
	Features []float64 `json:"features"`
	Label    int       `json:"label"`
}
