package trainer

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

var ErrInvalidArgument = errors.New("invalid training input")

// InvalidArgumentError reports training input rejected before fitting
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// Validate checks that X and y are non-empty, of equal length, rectangular
// and labeled 0 or 1.
func Validate(X [][]float64, y []int) error {
	if len(X) == 0 {
		return &InvalidArgumentError{Argument: "features", Reason: "no feature vectors"}
	}
	if len(y) == 0 {
		return &InvalidArgumentError{Argument: "labels", Reason: "no labels"}
	}
	if len(X) != len(y) {
		return &InvalidArgumentError{
			Argument: "labels",
			Reason:   fmt.Sprintf("%d labels for %d feature vectors", len(y), len(X)),
		}
	}

	dim := len(X[0])
	if dim == 0 {
		return &InvalidArgumentError{Argument: "features", Reason: "empty feature vector"}
	}
	for i, row := range X {
		if len(row) != dim {
			return &InvalidArgumentError{
				Argument: "features",
				Reason:   fmt.Sprintf("row %d has %d features, expected %d", i, len(row), dim),
			}
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return &InvalidArgumentError{
				Argument: "labels",
				Reason:   fmt.Sprintf("label %d at row %d is not 0 or 1", label, i),
			}
		}
	}
	return nil
}

// Fit validates the input and fits a new classifier of the given algorithm.
// X and y are copied and never modified.
func Fit(X [][]float64, y []int, algorithm string) (classifier.Persistent, error) {
	if err := Validate(X, y); err != nil {
		return nil, err
	}

	clf, err := classifier.New(algorithm)
	if err != nil {
		return nil, &InvalidArgumentError{Argument: "algorithm", Reason: err.Error()}
	}

	data := make([]float64, 0, len(X)*len(X[0]))
	for _, row := range X {
		data = append(data, row...)
	}
	labels := make([]int, len(y))
	copy(labels, y)

	if err := clf.Fit(mat.NewDense(len(X), len(X[0]), data), labels); err != nil {
		return nil, fmt.Errorf("failed to fit %s: %w", algorithm, err)
	}
	return clf, nil
}

// Train fits a classifier and writes its artifact to w
func Train(X [][]float64, y []int, algorithm string, w io.Writer) (*classifier.Artifact, error) {
	clf, err := Fit(X, y, algorithm)
	if err != nil {
		return nil, err
	}
	return classifier.Save(w, clf)
}

// TrainFile fits a classifier and writes its artifact to path. The fitted
// classifier is returned with its artifact.
func TrainFile(X [][]float64, y []int, algorithm, path string) (classifier.Persistent, *classifier.Artifact, error) {
	clf, err := Fit(X, y, algorithm)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := classifier.SaveFile(path, clf)
	if err != nil {
		return nil, nil, err
	}
	return clf, artifact, nil
}

// Split separates examples into feature vectors and labels
func Split(examples []models.TrainingExample) ([][]float64, []int) {
	X := make([][]float64, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		X[i] = ex.Features
		y[i] = ex.Label
	}
	return X, y
}
