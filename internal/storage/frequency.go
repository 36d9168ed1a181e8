package storage

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NumDocumentsKey is the df-file entry holding the corpus size
const NumDocumentsKey = "--NB_DOC--"

// FrequencyTable maps candidate keys to document frequencies. It is
// read-only once built.
type FrequencyTable struct {
	counts map[string]int
	n      int
}

// NewFrequencyTable wraps counts, which must not be modified afterwards
func NewFrequencyTable(counts map[string]int, numDocuments int) *FrequencyTable {
	if counts == nil {
		counts = map[string]int{}
	}
	return &FrequencyTable{counts: counts, n: numDocuments}
}

// Lookup returns the document frequency of key, 0 when absent
func (t *FrequencyTable) Lookup(key string) int {
	return t.counts[key]
}

// NumDocuments returns the corpus size, 0 when unknown
func (t *FrequencyTable) NumDocuments() int {
	return t.n
}

// Len returns the number of keys
func (t *FrequencyTable) Len() int {
	return len(t.counts)
}

// ReadFrequencies parses tab-separated key/count lines. Gzip input is
// detected from its magic bytes.
func ReadFrequencies(r io.Reader) (*FrequencyTable, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		return scanFrequencies(gz)
	}
	return scanFrequencies(br)
}

func scanFrequencies(r io.Reader) (*FrequencyTable, error) {
	counts := make(map[string]int)
	n := 0

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		key, value, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab separator", line)
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("line %d: invalid count %q", line, value)
		}

		if key == NumDocumentsKey {
			n = count
			continue
		}
		counts[key] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frequencies: %w", err)
	}

	return NewFrequencyTable(counts, n), nil
}

// LoadFrequencyFile reads a df file, plain or gzip compressed
func LoadFrequencyFile(path string) (*FrequencyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frequency file: %w", err)
	}
	defer f.Close()

	t, err := ReadFrequencies(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return t, nil
}

// WriteFrequencies writes t as gzip compressed tab-separated lines, corpus
// size first.
func WriteFrequencies(w io.Writer, t *FrequencyTable) error {
	gz := gzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	fmt.Fprintf(bw, "%s\t%d\n", NumDocumentsKey, t.n)
	for k, v := range t.counts {
		fmt.Fprintf(bw, "%s\t%d\n", k, v)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write frequencies: %w", err)
	}
	return gz.Close()
}

// FrequencyRepository persists document frequencies
type FrequencyRepository interface {
	Load(ctx context.Context) (*FrequencyTable, error)
	Upsert(ctx context.Context, t *FrequencyTable) error
}

// PostgresFrequencyRepository implements FrequencyRepository using PostgreSQL
type PostgresFrequencyRepository struct {
	db *sql.DB
}

// NewPostgresFrequencyRepository creates a new PostgresFrequencyRepository
func NewPostgresFrequencyRepository(db *sql.DB) *PostgresFrequencyRepository {
	return &PostgresFrequencyRepository{db: db}
}

// Load reads the whole table. The corpus size is stored under NumDocumentsKey.
func (r *PostgresFrequencyRepository) Load(ctx context.Context) (*FrequencyTable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, count FROM document_frequencies`)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequencies: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	n := 0
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan frequency: %w", err)
		}
		if key == NumDocumentsKey {
			n = count
			continue
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewFrequencyTable(counts, n), nil
}

// Upsert writes every count of t and its corpus size in a single transaction
func (r *PostgresFrequencyRepository) Upsert(ctx context.Context, t *FrequencyTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_frequencies (key, count)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET count = EXCLUDED.count
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, NumDocumentsKey, t.n); err != nil {
		return fmt.Errorf("failed to store corpus size: %w", err)
	}
	for k, v := range t.counts {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("failed to store frequency of %q: %w", k, err)
		}
	}

	return tx.Commit()
}
