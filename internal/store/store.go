// Package store persists parsed documents in SQLite or PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// ErrNotFound is returned when no document has the requested ID.
var ErrNotFound = errors.New("store: document not found")

// Document is a parsed CSV document with its warnings.
type Document struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Headers   []string      `json:"headers,omitempty"`
	Records   [][]string    `json:"records"`
	Warnings  []csv.Warning `json:"warnings"`
	Bytes     int64         `json:"bytes"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary describes a stored document without its records.
type Summary struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	RecordCount  int       `json:"record_count"`
	WarningCount int       `json:"warning_count"`
	Bytes        int64     `json:"bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary returns the summary of d.
func (d *Document) Summary() Summary {
	return Summary{
		ID:           d.ID,
		Source:       d.Source,
		RecordCount:  len(d.Records),
		WarningCount: len(d.Warnings),
		Bytes:        d.Bytes,
		CreatedAt:    d.CreatedAt,
	}
}

// Store keeps documents. Implementations are safe for concurrent use.
type Store interface {
	// Save inserts doc, replacing any document with the same ID.
	Save(ctx context.Context, doc *Document) error
	// Get returns the document with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)
	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)
	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// PruneBefore removes documents created before t and returns how many
	// were removed.
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
	Close() error
}

// Open returns the store selected by cfg.Driver. The "none" driver yields a
// nil Store and no error.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return NewSQLiteStore(cfg.DSN)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// encoded is the column form of a Document's slices.
type encoded struct {
	headers, records, warnings []byte
}

func encode(doc *Document) (encoded, error) {
	var (
		e   encoded
		err error
	)
	headers := doc.Headers
	if headers == nil {
		headers = []string{}
	}
	records := doc.Records
	if records == nil {
		records = [][]string{}
	}
	warnings := doc.Warnings
	if warnings == nil {
		warnings = []csv.Warning{}
	}
	if e.headers, err = json.Marshal(headers); err != nil {
		return e, fmt.Errorf("failed to encode headers: %w", err)
	}
	if e.records, err = json.Marshal(records); err != nil {
		return e, fmt.Errorf("failed to encode records: %w", err)
	}
	if e.warnings, err = json.Marshal(warnings); err != nil {
		return e, fmt.Errorf("failed to encode warnings: %w", err)
	}
	return e, nil
}

func (e encoded) decode(doc *Document) error {
	if err := json.Unmarshal(e.headers, &doc.Headers); err != nil {
		return fmt.Errorf("failed to decode headers: %w", err)
	}
	if len(doc.Headers) == 0 {
		doc.Headers = nil
	}
	if err := json.Unmarshal(e.records, &doc.Records); err != nil {
		return fmt.Errorf("failed to decode records: %w", err)
	}
	if err := json.Unmarshal(e.warnings, &doc.Warnings); err != nil {
		return fmt.Errorf("failed to decode warnings: %w", err)
	}
	return nil
}

func listLimit(limit int) int {
	if limit < 1 || limit > 1000 {
		return 100
	}
	return limit
}
