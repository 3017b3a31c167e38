// Package ingest parses CSV streams into stored documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/shapestone/shape-csvchunk/internal/logging"
	"github.com/shapestone/shape-csvchunk/internal/metrics"
	"github.com/shapestone/shape-csvchunk/internal/store"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// ErrTooLarge is returned when a document exceeds Request.MaxBytes.
var ErrTooLarge = errors.New("ingest: document too large")

// Service parses documents and hands them to a store. A nil store keeps
// documents in memory only; a nil collector records nothing.
type Service struct {
	store      store.Store
	metrics    *metrics.Collector
	opts       csv.Options
	chunkSize  int
	hasHeaders bool
	now        func() time.Time
}

// Settings are the service-wide defaults for every Request.
type Settings struct {
	Options    csv.Options
	ChunkSize  int
	HasHeaders bool
}

// NewService validates settings.Options and returns a Service.
func NewService(st store.Store, collector *metrics.Collector, settings Settings) (*Service, error) {
	cfg, err := csv.NewConfig(settings.Options)
	if err != nil {
		return nil, err
	}
	chunk := settings.ChunkSize
	if chunk < 1 {
		chunk = csv.DefaultChunkSize
	}
	return &Service{
		store:      st,
		metrics:    collector,
		opts:       cfg.Options(),
		chunkSize:  chunk,
		hasHeaders: settings.HasHeaders,
		now:        time.Now,
	}, nil
}

// Request describes one document to ingest.
type Request struct {
	// Source labels where the document came from, e.g. "api" or a file name.
	Source string
	Reader io.Reader
	// Options overrides the service parser options when non-nil.
	Options *csv.Options
	// HasHeaders overrides the service header setting when non-nil.
	HasHeaders *bool
	// MaxBytes fails the request once more bytes are read. Zero means no limit.
	MaxBytes int64
	// DryRun parses without storing.
	DryRun bool
}

// Store returns the service store, which may be nil.
func (s *Service) Store() store.Store { return s.store }

// Options returns the default parser options.
func (s *Service) Options() csv.Options { return s.opts }

// Ingest parses r with the service defaults and stores the result.
func (s *Service) Ingest(ctx context.Context, source string, r io.Reader) (*store.Document, error) {
	return s.Do(ctx, Request{Source: source, Reader: r})
}

// Do parses req.Reader and, unless req.DryRun is set or the service has no
// store, saves the document. Parse warnings never fail a request.
func (s *Service) Do(ctx context.Context, req Request) (*store.Document, error) {
	opts := s.opts
	if req.Options != nil {
		opts = *req.Options
	}
	hasHeaders := s.hasHeaders
	if req.HasHeaders != nil {
		hasHeaders = *req.HasHeaders
	}

	log := logging.WithFields(ctx, "source", req.Source)
	start := time.Now()
	counter := &countingReader{r: req.Reader, limit: req.MaxBytes}

	doc, err := s.parse(ctx, counter, opts, hasHeaders)
	if err != nil {
		s.metrics.RecordDocument(req.Source, 0, counter.n, nil, time.Since(start), err)
		log.Warn("document rejected", "error", err, "bytes", counter.n)
		return nil, err
	}
	doc.ID = uuid.New().String()
	doc.Source = req.Source
	doc.Bytes = counter.n
	doc.CreatedAt = s.now().UTC()
	s.metrics.RecordDocument(req.Source, len(doc.Records), doc.Bytes, doc.Warnings, time.Since(start), nil)

	log = log.With("document_id", doc.ID)
	if s.store != nil && !req.DryRun {
		if err := s.store.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
	}
	log.Info("document parsed",
		"records", len(doc.Records),
		"warnings", len(doc.Warnings),
		"bytes", doc.Bytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (s *Service) parse(ctx context.Context, r io.Reader, opts csv.Options, hasHeaders bool) (*store.Document, error) {
	scanner, err := csv.NewScanner(r, opts)
	if err != nil {
		return nil, err
	}
	scanner.SetChunkSize(s.chunkSize).SetHasHeaders(hasHeaders)

	doc := &store.Document{Records: [][]string{}}
	for scanner.Scan() {
		if len(doc.Records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		doc.Records = append(doc.Records, scanner.Record().Fields())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc.Headers = scanner.Headers()
	doc.Warnings = scanner.Warnings()
	return doc, nil
}

// countingReader counts bytes read and fails once more than limit bytes
// arrive.
type countingReader struct {
	r     io.Reader
	n     int64
	limit int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		return n, ErrTooLarge
	}
	return n, err
}
