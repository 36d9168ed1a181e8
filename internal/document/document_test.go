package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const coreNLPSample = `{
  "sentences": [
    {"index": 0, "tokens": [
      {"index": 1, "word": "Neural", "originalText": "Neural", "pos": "JJ"},
      {"index": 2, "word": "networks", "originalText": "networks", "pos": "NNS"},
      {"index": 3, "word": "learn", "originalText": "learn", "pos": "VBP"}
    ]},
    {"index": 1, "tokens": []},
    {"index": 2, "tokens": [
      {"index": 1, "originalText": "Graphs", "pos": "NNS"}
    ]}
  ]
}`

func TestFromCoreNLP(t *testing.T) {
	doc, err := FromCoreNLP("sample", []byte(coreNLPSample), strings.ToLower)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if doc.ID != "sample" {
		t.Errorf("expected ID sample, got %q", doc.ID)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("expected empty sentences to be skipped, got %d sentences", len(doc.Sentences))
	}

	first := doc.Sentences[0]
	if strings.Join(first.Words, " ") != "Neural networks learn" {
		t.Errorf("unexpected words %v", first.Words)
	}
	if strings.Join(first.Stems, " ") != "neural networks learn" {
		t.Errorf("unexpected stems %v", first.Stems)
	}
	if strings.Join(first.POS, " ") != "JJ NNS VBP" {
		t.Errorf("unexpected tags %v", first.POS)
	}
	if doc.Sentences[1].Words[0] != "Graphs" {
		t.Errorf("expected originalText fallback, got %v", doc.Sentences[1].Words)
	}
}

func TestFromCoreNLP_DefaultStemmer(t *testing.T) {
	doc, err := FromCoreNLP("sample", []byte(coreNLPSample), nil)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if got := doc.Sentences[0].Stems[1]; got != "network" {
		t.Errorf("expected stem network, got %q", got)
	}
}

func TestFromCoreNLP_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"invalid json", `{"sentences": [`, ErrInvalidJSON},
		{"missing pos", `{"sentences":[{"tokens":[{"word":"x"}]}]}`, ErrMissingTokens},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromCoreNLP("x", []byte(tt.data), nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCoreNLPFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "C-41.json")
	if err := os.WriteFile(path, []byte(coreNLPSample), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadCoreNLPFile(path, nil)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if doc.ID != "C-41" {
		t.Errorf("expected ID C-41, got %q", doc.ID)
	}

	if _, err := LoadCoreNLPFile(filepath.Join(t.TempDir(), "missing.json"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestDocumentID(t *testing.T) {
	tests := map[string]string{
		"/data/C-41.json": "C-41",
		"H-5.xml.gz":      "H-5",
		"plain":           "plain",
		"/data/.hidden":   ".hidden",
	}
	for in, want := range tests {
		if got := DocumentID(in); got != want {
			t.Errorf("DocumentID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStemPhrase(t *testing.T) {
	if got := StemPhrase("Neural  Networks", nil); got != "neural network" {
		t.Errorf("expected \"neural network\", got %q", got)
	}
	if got := StemPhrase("", nil); got != "" {
		t.Errorf("expected empty key, got %q", got)
	}
}

func TestTextBuilder_Build(t *testing.T) {
	doc, err := NewTextBuilder().Build("raw", "Graph theory is fun. Sparse matrices are useful.")
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(doc.Sentences))
	}
	for i, s := range doc.Sentences {
		if len(s.Words) != len(s.Stems) || len(s.Words) != len(s.POS) {
			t.Errorf("sentence %d arrays misaligned", i)
		}
		for j, tag := range s.POS {
			if tag == "" {
				t.Errorf("sentence %d token %d has no tag", i, j)
			}
		}
	}
	if doc.Sentences[0].Words[0] != "Graph" || doc.Sentences[0].Stems[0] != "graph" {
		t.Errorf("unexpected first token %q/%q", doc.Sentences[0].Words[0], doc.Sentences[0].Stems[0])
	}
}

func TestTextBuilder_Blank(t *testing.T) {
	doc, err := NewTextBuilder().Build("blank", "  \n ")
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if len(doc.Sentences) != 0 {
		t.Errorf("expected no sentences, got %d", len(doc.Sentences))
	}
}
