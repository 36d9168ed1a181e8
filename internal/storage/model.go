package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
)

var ErrModelNotFound = errors.New("model not found")

// ModelStore saves and loads the current classifier of each variant
type ModelStore interface {
	Save(ctx context.Context, variant string, clf classifier.Classifier) (*classifier.Artifact, error)
	Load(ctx context.Context, variant string) (classifier.Classifier, *classifier.Artifact, error)
}

// FileModelStore keeps one artifact file per variant in a directory
type FileModelStore struct {
	dir string
}

// NewFileModelStore creates a store rooted at dir
func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

// Path returns the artifact file of variant
func (s *FileModelStore) Path(variant string) string {
	return filepath.Join(s.dir, variant+".model.json")
}

// Save replaces the artifact of variant
func (s *FileModelStore) Save(ctx context.Context, variant string, clf classifier.Classifier) (*classifier.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return classifier.SaveFile(s.Path(variant), clf)
}

// Load reads the artifact of variant. A missing file is ErrModelNotFound.
func (s *FileModelStore) Load(ctx context.Context, variant string) (classifier.Classifier, *classifier.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path := s.Path(variant)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, variant)
	}
	if err != nil {
		return nil, nil, &classifier.DeserializationError{Source: path, Err: err}
	}

	clf, artifact, err := classifier.Unmarshal(data)
	if err != nil {
		var de *classifier.DeserializationError
		if errors.As(err, &de) {
			de.Source = path
		}
		return nil, nil, err
	}
	return clf, artifact, nil
}

// ModelRecord is a stored model artifact
type ModelRecord struct {
	ID          uuid.UUID
	Variant     string
	Algorithm   string
	NumFeatures int
	Artifact    []byte
	CreatedAt   time.Time
}

// ModelRepository defines the interface for model artifact storage operations
type ModelRepository interface {
	Create(ctx context.Context, record *ModelRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ModelRecord, error)
	GetLatest(ctx context.Context, variant string) (*ModelRecord, error)
	ListByVariant(ctx context.Context, variant string) ([]*ModelRecord, error)
}

// PostgresModelRepository implements ModelRepository and ModelStore using
// PostgreSQL. Every save adds a new row; the latest row of a variant is the
// current model.
type PostgresModelRepository struct {
	db *sql.DB
}

// NewPostgresModelRepository creates a new PostgresModelRepository
func NewPostgresModelRepository(db *sql.DB) *PostgresModelRepository {
	return &PostgresModelRepository{db: db}
}

// Create inserts a model record
func (r *PostgresModelRepository) Create(ctx context.Context, record *ModelRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO models (id, variant, algorithm, num_features, artifact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Variant,
		record.Algorithm,
		record.NumFeatures,
		record.Artifact,
		record.CreatedAt,
	)

	return err
}

// GetByID retrieves a model record by its ID
func (r *PostgresModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*ModelRecord, error) {
	query := `
		SELECT id, variant, algorithm, num_features, artifact, created_at
		FROM models
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetLatest retrieves the most recent model record of a variant
func (r *PostgresModelRepository) GetLatest(ctx context.Context, variant string) (*ModelRecord, error) {
	query := `
		SELECT id, variant, algorithm, num_features, artifact, created_at
		FROM models
		WHERE variant = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, variant))
}

// ListByVariant retrieves the model history of a variant, newest first, without artifacts
func (r *PostgresModelRepository) ListByVariant(ctx context.Context, variant string) ([]*ModelRecord, error) {
	query := `
		SELECT id, variant, algorithm, num_features, created_at
		FROM models
		WHERE variant = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, variant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ModelRecord
	for rows.Next() {
		rec := &ModelRecord{}
		if err := rows.Scan(&rec.ID, &rec.Variant, &rec.Algorithm, &rec.NumFeatures, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *PostgresModelRepository) scanOne(row *sql.Row) (*ModelRecord, error) {
	rec := &ModelRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.Variant,
		&rec.Algorithm,
		&rec.NumFeatures,
		&rec.Artifact,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save serializes clf and stores it as the latest model of variant
func (r *PostgresModelRepository) Save(ctx context.Context, variant string, clf classifier.Classifier) (*classifier.Artifact, error) {
	data, artifact, err := classifier.Marshal(clf)
	if err != nil {
		return nil, err
	}

	record := &ModelRecord{
		ID:          artifact.ID,
		Variant:     variant,
		Algorithm:   artifact.Algorithm,
		NumFeatures: artifact.NumFeatures,
		Artifact:    data,
		CreatedAt:   artifact.CreatedAt,
	}
	if err := r.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store model: %w", err)
	}
	return artifact, nil
}

// Load reads the latest model of variant
func (r *PostgresModelRepository) Load(ctx context.Context, variant string) (classifier.Classifier, *classifier.Artifact, error) {
	record, err := r.GetLatest(ctx, variant)
	if errors.Is(err, ErrModelNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, variant)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get model: %w", err)
	}

	clf, artifact, err := classifier.Unmarshal(record.Artifact)
	if err != nil {
		var de *classifier.DeserializationError
		if errors.As(err, &de) {
			de.Source = "model " + record.ID.String()
		}
		return nil, nil, err
	}
	return clf, artifact, nil
}
