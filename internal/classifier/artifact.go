package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	ArtifactFormat  = "keyphrase-model"
	ArtifactVersion = 1
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported artifact format")
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
	ErrInvalidParams      = errors.New("invalid model parameters")
	ErrFeatureMismatch    = errors.New("model feature count does not match pipeline")
)

// DeserializationError reports a model artifact that cannot be used
type DeserializationError struct {
	Source string
	Err    error
}

func (e *DeserializationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to load model: %v", e.Err)
	}
	return fmt.Sprintf("failed to load model %s: %v", e.Source, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// Artifact is the persisted form of a fitted classifier
type Artifact struct {
	Format      string          `json:"format"`
	Version     int             `json:"version"`
	ID          uuid.UUID       `json:"id"`
	Algorithm   string          `json:"algorithm"`
	NumFeatures int             `json:"num_features"`
	CreatedAt   time.Time       `json:"created_at"`
	Params      json.RawMessage `json:"params"`
}

// NewArtifact captures the fitted state of clf
func NewArtifact(clf Classifier) (*Artifact, error) {
	p, ok := clf.(Persistent)
	if !ok {
		return nil, fmt.Errorf("classifier %q cannot be persisted", clf.Algorithm())
	}
	params, err := p.MarshalParams()
	if err != nil {
		return nil, fmt.Errorf("failed to encode model parameters: %w", err)
	}
	return &Artifact{
		Format:      ArtifactFormat,
		Version:     ArtifactVersion,
		ID:          uuid.New(),
		Algorithm:   p.Algorithm(),
		NumFeatures: p.NumFeatures(),
		CreatedAt:   time.Now().UTC(),
		Params:      params,
	}, nil
}

// Validate checks the header fields of the artifact
func (a *Artifact) Validate() error {
	if a.Format != ArtifactFormat {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, a.Format)
	}
	if a.Version != ArtifactVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	if a.NumFeatures <= 0 {
		return fmt.Errorf("%w: feature count %d", ErrInvalidParams, a.NumFeatures)
	}
	if len(a.Params) == 0 {
		return fmt.Errorf("%w: missing parameters", ErrInvalidParams)
	}
	return nil
}

// Classifier rebuilds the fitted classifier described by the artifact
func (a *Artifact) Classifier() (Classifier, error) {
	if err := a.Validate(); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	clf, err := New(a.Algorithm)
	if err != nil {
		return nil, &DeserializationError{Err: err}
	}
	if err := clf.UnmarshalParams(a.NumFeatures, a.Params); err != nil {
		return nil, &DeserializationError{Err: fmt.Errorf("%w: %v", ErrInvalidParams, err)}
	}
	return clf, nil
}

// Encode serializes the artifact
func (a *Artifact) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// Save writes the artifact of clf to w
func Save(w io.Writer, clf Classifier) (*Artifact, error) {
	a, err := NewArtifact(clf)
	if err != nil {
		return nil, err
	}
	if err := a.Encode(w); err != nil {
		return nil, fmt.Errorf("failed to write model: %w", err)
	}
	return a, nil
}

// Marshal returns the serialized artifact of clf
func Marshal(clf Classifier) ([]byte, *Artifact, error) {
	var buf bytes.Buffer
	a, err := Save(&buf, clf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), a, nil
}

// ReadArtifact decodes and validates an artifact header
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	if err := dec.Decode(&a); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	if err := a.Validate(); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	return &a, nil
}

// Load reads a fitted classifier from r
func Load(r io.Reader) (Classifier, error) {
	a, err := ReadArtifact(r)
	if err != nil {
		return nil, err
	}
	return a.Classifier()
}

// Unmarshal reads a fitted classifier from a serialized artifact
func Unmarshal(data []byte) (Classifier, *Artifact, error) {
	a, err := ReadArtifact(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	clf, err := a.Classifier()
	if err != nil {
		return nil, nil, err
	}
	return clf, a, nil
}

// SaveFile writes the artifact of clf to path. The file is written next to
// its destination and renamed into place.
func SaveFile(path string, clf Classifier) (*Artifact, error) {
	data, a, err := Marshal(clf)
	if err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadFile reads a fitted classifier from path
func LoadFile(path string) (Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DeserializationError{Source: path, Err: err}
	}
	defer f.Close()

	clf, err := Load(f)
	if err != nil {
		var de *DeserializationError
		if errors.As(err, &de) {
			de.Source = path
		}
		return nil, err
	}
	return clf, nil
}

// WriteFileAtomic writes data to a temporary file in the directory of path
// and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model file into place: %w", err)
	}
	return nil
}
