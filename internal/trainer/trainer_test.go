package trainer

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/document"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

func separable() ([][]float64, []int) {
	X := [][]float64{
		{0.9, 0.1}, {0.8, 0.2}, {0.85, 0.15}, {0.95, 0.05},
		{0.1, 0.9}, {0.2, 0.8}, {0.15, 0.85}, {0.05, 0.95},
	}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return X, y
}

func denseOf(X [][]float64) *mat.Dense {
	m := mat.NewDense(len(X), len(X[0]), nil)
	for i, row := range X {
		m.SetRow(i, row)
	}
	return m
}

func TestTrain_RoundTripRecoversLabels(t *testing.T) {
	for _, algorithm := range []string{classifier.AlgorithmNaiveBayes, classifier.AlgorithmLogistic} {
		t.Run(algorithm, func(t *testing.T) {
			X, y := separable()

			var buf bytes.Buffer
			artifact, err := Train(X, y, algorithm, &buf)
			if err != nil {
				t.Fatalf("failed to train: %v", err)
			}
			if artifact.NumFeatures != 2 || artifact.Algorithm != algorithm {
				t.Errorf("unexpected artifact header %+v", artifact)
			}

			clf, err := classifier.Load(&buf)
			if err != nil {
				t.Fatalf("failed to load: %v", err)
			}

			probs, err := clf.PredictProba(denseOf(X))
			if err != nil {
				t.Fatalf("failed to predict: %v", err)
			}
			for i, p := range probs {
				got := 0
				if p > 0.5 {
					got = 1
				}
				if got != y[i] {
					t.Errorf("row %d: expected label %d, got probability %v", i, y[i], p)
				}
			}
		})
	}
}

func TestTrain_DoesNotMutateInput(t *testing.T) {
	X, y := separable()
	before := make([][]float64, len(X))
	for i, row := range X {
		before[i] = append([]float64(nil), row...)
	}

	if _, err := Fit(X, y, classifier.AlgorithmNaiveBayes); err != nil {
		t.Fatalf("failed to fit: %v", err)
	}
	for i := range X {
		for j := range X[i] {
			if X[i][j] != before[i][j] {
				t.Fatalf("input modified at (%d,%d)", i, j)
			}
		}
	}
}

func TestTrainFile(t *testing.T) {
	X, y := separable()
	path := filepath.Join(t.TempDir(), "models", "kea.model.json")

	fitted, artifact, err := TrainFile(X, y, classifier.AlgorithmLogistic, path)
	if err != nil {
		t.Fatalf("failed to train: %v", err)
	}

	clf, err := classifier.LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if clf.Algorithm() != artifact.Algorithm || fitted.Algorithm() != artifact.Algorithm {
		t.Errorf("expected %s, got %s and %s", artifact.Algorithm, clf.Algorithm(), fitted.Algorithm())
	}
}

func TestTrain_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		X         [][]float64
		y         []int
		algorithm string
		argument  string
	}{
		{"empty features", nil, []int{1}, classifier.AlgorithmNaiveBayes, "features"},
		{"empty labels", [][]float64{{1}}, nil, classifier.AlgorithmNaiveBayes, "labels"},
		{"length mismatch", [][]float64{{1}, {2}}, []int{1}, classifier.AlgorithmNaiveBayes, "labels"},
		{"ragged rows", [][]float64{{1, 2}, {3}}, []int{0, 1}, classifier.AlgorithmNaiveBayes, "features"},
		{"empty row", [][]float64{{}}, []int{0}, classifier.AlgorithmNaiveBayes, "features"},
		{"bad label", [][]float64{{1}, {2}}, []int{0, 3}, classifier.AlgorithmNaiveBayes, "labels"},
		{"unknown algorithm", [][]float64{{1}, {2}}, []int{0, 1}, "svm", "algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Train(tt.X, tt.y, tt.algorithm, &buf)

			var iae *InvalidArgumentError
			if !errors.As(err, &iae) || !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected InvalidArgumentError, got %v", err)
			}
			if iae.Argument != tt.argument {
				t.Errorf("expected argument %q, got %q", tt.argument, iae.Argument)
			}
			if buf.Len() != 0 {
				t.Error("expected nothing written on invalid input")
			}
		})
	}
}

func TestSplit(t *testing.T) {
	X, y := Split([]models.TrainingExample{
		{Key: "a", Features: []float64{1, 2}, Label: 1},
		{Key: "b", Features: []float64{3, 4}, Label: 0},
	})
	if len(X) != 2 || X[1][0] != 3 || y[0] != 1 || y[1] != 0 {
		t.Errorf("unexpected split %v %v", X, y)
	}
}

func labeledSentence(text, tags string) models.Sentence {
	words := strings.Fields(text)
	stems := make([]string, len(words))
	for i, w := range words {
		stems[i] = strings.ToLower(w)
	}
	return models.Sentence{Words: words, Stems: stems, POS: strings.Fields(tags)}
}

func TestBuildExamples(t *testing.T) {
	p, err := pipeline.NewForVariant(pipeline.Kea, pipeline.Resources{Training: true})
	if err != nil {
		t.Fatal(err)
	}

	docs := []LabeledDocument{
		{
			Document: models.Document{ID: "a", Sentences: []models.Sentence{
				labeledSentence("Graph theory studies graph structure", "NN NN VBZ NN NN"),
			}},
			References: []string{"graph theory"},
		},
		{
			Document: models.Document{ID: "b", Sentences: []models.Sentence{
				labeledSentence("Sparse matrix methods", "JJ NN NNS"),
			}},
			References: []string{"sparse matrix", "not a candidate"},
		},
	}

	examples, err := BuildExamples(p, docs)
	if err != nil {
		t.Fatalf("failed to build examples: %v", err)
	}

	positives := map[string]bool{}
	for _, ex := range examples {
		if len(ex.Features) != p.NumFeatures() {
			t.Errorf("example %q has %d features", ex.Key, len(ex.Features))
		}
		if ex.Label == 1 {
			positives[ex.Key] = true
		}
	}
	if len(positives) != 2 || !positives["graph theory"] || !positives["sparse matrix"] {
		t.Errorf("unexpected positives %v", positives)
	}

	X, y := Split(examples)
	if _, err := Fit(X, y, classifier.AlgorithmNaiveBayes); err != nil {
		t.Errorf("failed to fit built examples: %v", err)
	}
}

func TestBuildExamples_MalformedDocument(t *testing.T) {
	p, _ := pipeline.NewForVariant(pipeline.SupTfIdf, pipeline.Resources{})
	docs := []LabeledDocument{{Document: models.Document{ID: "x", Sentences: []models.Sentence{{Words: []string{"a"}}}}}}
	if _, err := BuildExamples(p, docs); !errors.Is(err, pipeline.ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestReadReferences(t *testing.T) {
	input := "C-41 : Grid Computing,resource+resources\n\nH-5 : sparse matrices\n"

	refs, err := ReadReferences(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadReferences failed: %v", err)
	}
	want := []string{"grid computing", "resource", "resources"}
	if len(refs["C-41"]) != len(want) {
		t.Fatalf("expected %v, got %v", want, refs["C-41"])
	}
	for i, w := range want {
		if refs["C-41"][i] != w {
			t.Errorf("key %d: expected %q, got %q", i, w, refs["C-41"][i])
		}
	}

	stemmed, err := ReadReferences(strings.NewReader(input), document.SnowballStemmer)
	if err != nil {
		t.Fatalf("ReadReferences failed: %v", err)
	}
	if got := stemmed["H-5"]; len(got) != 1 || got[0] != "spars matric" {
		t.Errorf("expected stemmed key, got %v", got)
	}
}

func TestReadReferences_Malformed(t *testing.T) {
	for _, input := range []string{"no separator here", " : phrase"} {
		if _, err := ReadReferences(strings.NewReader(input), nil); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestCountFrequencies(t *testing.T) {
	docs := []models.Document{
		{ID: "a", Sentences: []models.Sentence{labeledSentence("graph theory , graph", "NN NN , NN")}},
		{ID: "b", Sentences: []models.Sentence{labeledSentence("graph colouring", "NN NN")}},
	}

	table := CountFrequencies(docs)
	if table.NumDocuments() != 2 {
		t.Errorf("expected 2 documents, got %d", table.NumDocuments())
	}

	tests := map[string]int{
		"graph":           2,
		"graph theory":    1,
		"graph colouring": 1,
		"theory , graph":  0,
		",":               0,
	}
	for key, want := range tests {
		if got := table.Lookup(key); got != want {
			t.Errorf("Lookup(%q) = %d, want %d", key, got, want)
		}
	}
}
