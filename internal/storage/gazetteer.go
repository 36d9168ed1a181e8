package storage

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/todmy/keyphrase-extractor/internal/candidate"
)

// ReadGazetteer reads one candidate key per line. Blank lines and lines
// starting with # are skipped, inner whitespace is collapsed.
func ReadGazetteer(r io.Reader) (candidate.Gazetteer, error) {
	g := candidate.NewGazetteer()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g[strings.Join(strings.Fields(line), candidate.KeySeparator)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gazetteer: %w", err)
	}
	return g, nil
}

// LoadGazetteerFile reads a gazetteer file
func LoadGazetteerFile(path string) (candidate.Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gazetteer: %w", err)
	}
	defer f.Close()
	return ReadGazetteer(f)
}

// GazetteerRepository persists gazetteer keys
type GazetteerRepository interface {
	Load(ctx context.Context) (candidate.Gazetteer, error)
	Add(ctx context.Context, keys []string) error
}

// PostgresGazetteerRepository implements GazetteerRepository using PostgreSQL
type PostgresGazetteerRepository struct {
	db *sql.DB
}

// NewPostgresGazetteerRepository creates a new PostgresGazetteerRepository
func NewPostgresGazetteerRepository(db *sql.DB) *PostgresGazetteerRepository {
	return &PostgresGazetteerRepository{db: db}
}

// Load reads every gazetteer key
func (r *PostgresGazetteerRepository) Load(ctx context.Context) (candidate.Gazetteer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM gazetteer_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query gazetteer: %w", err)
	}
	defer rows.Close()

	g := candidate.NewGazetteer()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan gazetteer key: %w", err)
		}
		g[key] = struct{}{}
	}
	return g, rows.Err()
}

// Add inserts keys, ignoring those already present
func (r *PostgresGazetteerRepository) Add(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gazetteer_entries (key)
		VALUES ($1)
		ON CONFLICT (key) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k); err != nil {
			return fmt.Errorf("failed to add gazetteer key %q: %w", k, err)
		}
	}

	return tx.Commit()
}
