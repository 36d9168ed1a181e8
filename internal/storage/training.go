package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// TrainingRecord is a stored training example of a variant
type TrainingRecord struct {
	ID         uuid.UUID
	Variant    string
	DocumentID string
	Key        string
	Features   pgvector.Vector
	Label      int
	CreatedAt  time.Time
}

// NewTrainingRecord converts an example into a record of variant
func NewTrainingRecord(variant, documentID string, ex models.TrainingExample) *TrainingRecord {
	vec := make([]float32, len(ex.Features))
	for i, f := range ex.Features {
		vec[i] = float32(f)
	}
	return &TrainingRecord{
		Variant:    variant,
		DocumentID: documentID,
		Key:        ex.Key,
		Features:   pgvector.NewVector(vec),
		Label:      ex.Label,
	}
}

// Example converts the record back into a training example
func (t *TrainingRecord) Example() models.TrainingExample {
	vec := t.Features.Slice()
	features := make([]float64, len(vec))
	for i, f := range vec {
		features[i] = float64(f)
	}
	return models.TrainingExample{Key: t.Key, Features: features, Label: t.Label}
}

// TrainingRepository defines the interface for training example storage operations
type TrainingRepository interface {
	CreateBatch(ctx context.Context, records []*TrainingRecord) error
	GetByVariant(ctx context.Context, variant string) ([]*TrainingRecord, error)
	DeleteByVariant(ctx context.Context, variant string) error
}

// PostgresTrainingRepository implements TrainingRepository using PostgreSQL
// with pgvector feature columns.
type PostgresTrainingRepository struct {
	db *sql.DB
}

// NewPostgresTrainingRepository creates a new PostgresTrainingRepository
func NewPostgresTrainingRepository(db *sql.DB) *PostgresTrainingRepository {
	return &PostgresTrainingRepository{db: db}
}

// CreateBatch inserts multiple training records in a single transaction
func (r *PostgresTrainingRepository) CreateBatch(ctx context.Context, records []*TrainingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO training_examples (id, variant, document_id, key, features, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}

		_, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.Variant,
			rec.DocumentID,
			rec.Key,
			rec.Features,
			rec.Label,
			rec.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByVariant retrieves all training records of a variant in insertion order
func (r *PostgresTrainingRepository) GetByVariant(ctx context.Context, variant string) ([]*TrainingRecord, error) {
	query := `
		SELECT id, variant, document_id, key, features, label, created_at
		FROM training_examples
		WHERE variant = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, variant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*TrainingRecord
	for rows.Next() {
		rec := &TrainingRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.Variant,
			&rec.DocumentID,
			&rec.Key,
			&rec.Features,
			&rec.Label,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteByVariant removes all training records of a variant
func (r *PostgresTrainingRepository) DeleteByVariant(ctx context.Context, variant string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM training_examples WHERE variant = $1`, variant)
	return err
}

// Examples converts records into training examples
func Examples(records []*TrainingRecord) []models.TrainingExample {
	out := make([]models.TrainingExample, len(records))
	for i, rec := range records {
		out[i] = rec.Example()
	}
	return out
}
