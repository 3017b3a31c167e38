package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies the connection and creates the
// documents table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		headers JSONB NOT NULL,
		records JSONB NOT NULL,
		warnings JSONB NOT NULL,
		record_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		bytes BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	`)
	return err
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, doc *Document) error {
	e, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (id, source, headers, records, warnings, record_count, warning_count, bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			headers = EXCLUDED.headers,
			records = EXCLUDED.records,
			warnings = EXCLUDED.warnings,
			record_count = EXCLUDED.record_count,
			warning_count = EXCLUDED.warning_count,
			bytes = EXCLUDED.bytes,
			created_at = EXCLUDED.created_at`,
		doc.ID, doc.Source, string(e.headers), string(e.records), string(e.warnings),
		len(doc.Records), len(doc.Warnings), doc.Bytes, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Document, error) {
	var (
		doc Document
		e   encoded
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, headers::text, records::text, warnings::text, bytes, created_at FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Source, &e.headers, &e.records, &e.warnings, &doc.Bytes, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	if err := e.decode(&doc); err != nil {
		return nil, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return &doc, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, record_count, warning_count, bytes, created_at
		FROM documents ORDER BY created_at DESC, id LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.RecordCount, &sum.WarningCount, &sum.Bytes, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PruneBefore implements Store.
func (s *PostgresStore) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
