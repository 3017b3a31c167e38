// Package watch ingests CSV files as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/internal/store"
)

// Ingester consumes one document.
type Ingester interface {
	Ingest(ctx context.Context, source string, r io.Reader) (*store.Document, error)
}

// Watcher hands files to an Ingester once they stop changing for the
// debounce interval. Only files directly inside the directory are watched.
type Watcher struct {
	dir        string
	extensions []string
	debounce   time.Duration
	ingester   Ingester
	logger     *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New returns a watcher for cfg.Dir.
func New(cfg config.WatchConfig, ingester Ingester, logger *slog.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	return &Watcher{
		dir:        cfg.Dir,
		extensions: exts,
		debounce:   cfg.Debounce,
		ingester:   ingester,
		logger:     logger.With("component", "watch", "dir", cfg.Dir),
		timers:     make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is cancelled. Files already present are ingested
// first when existing is true. Pending and running ingestions finish before
// Run returns.
func (w *Watcher) Run(ctx context.Context, existing bool) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watcher started", "extensions", w.extensions, "debounce_ms", w.debounce.Milliseconds())

	if existing {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", w.dir, err)
		}
		for _, e := range entries {
			if path := filepath.Join(w.dir, e.Name()); !e.IsDir() && w.accepts(path) {
				w.schedule(ctx, path)
			}
		}
	}

	defer w.drain()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			w.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// accepts reports whether path has a watched extension and is not hidden.
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(base)))
}

// schedule (re)starts the debounce timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
	w.timers[path] = timer
}

// drain cancels timers that have not fired and waits for running ones.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Error("failed to open file", "path", path, "error", err)
		return
	}
	defer f.Close()

	doc, err := w.ingester.Ingest(ctx, filepath.Base(path), f)
	if err != nil {
		w.logger.Error("failed to ingest file", "path", path, "error", err)
		return
	}
	w.logger.Info("file ingested", "path", path, "document_id", doc.ID, "records", len(doc.Records), "warnings", len(doc.Warnings))
}
