package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "docs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(id string, created time.Time) *Document {
	return &Document{
		ID:      id,
		Source:  "test",
		Headers: []string{"name", "note"},
		Records: [][]string{{"Alice", "a,b"}, {"Bob", "multi\nline"}},
		Warnings: []csv.Warning{{
			Context: csv.ContextDelimitedField,
			Kind:    csv.DelimiterNotTerminated,
			Message: "Expects field delimiter (\") but no more data to read",
			Line:    2,
		}},
		Bytes:     42,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}
}

func TestSQLiteStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := testDocument("doc-1", time.Now())
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	want.Source = "replaced"
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() replace error = %v", err)
	}
	if got, _ := s.Get(ctx, "doc-1"); got.Source != "replaced" {
		t.Errorf("Source after replace = %q", got.Source)
	}
}

func TestSQLiteStore_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, &Document{ID: "empty", Source: "test", CreatedAt: time.UnixMilli(0).UTC()}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "empty")
	if err != nil {
		t.Fatal(err)
	}
	if got.Headers != nil || len(got.Records) != 0 || len(got.Warnings) != 0 {
		t.Errorf("Get() = %+v, want empty document", got)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListDeletePrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.Save(ctx, testDocument(id, base.AddDate(0, 0, i*10))); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, sum := range list {
		ids = append(ids, sum.ID)
	}
	if want := []string{"new", "mid", "old"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("List() ids = %v, want %v", ids, want)
	}
	if list[0].RecordCount != 2 || list[0].WarningCount != 1 || list[0].Bytes != 42 {
		t.Errorf("summary = %+v", list[0])
	}

	if list, _ := s.List(ctx, 1); len(list) != 1 {
		t.Errorf("List(1) returned %d summaries", len(list))
	}

	if err := s.Delete(ctx, "mid"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	n, err := s.PruneBefore(ctx, base.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PruneBefore() = %d, want 1", n)
	}
	if list, _ := s.List(ctx, 10); len(list) != 1 || list[0].ID != "new" {
		t.Errorf("remaining = %+v", list)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "none"})
	if err != nil || s != nil {
		t.Errorf("Open(none) = %v, %v; want nil, nil", s, err)
	}

	s, err = Open(ctx, config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	s.Close()

	if _, err := Open(ctx, config.StoreConfig{Driver: "bolt"}); err == nil {
		t.Error("Open(bolt) succeeded")
	}
}

func TestRetentionScheduler_Prune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Save(ctx, testDocument("expired", now.AddDate(0, 0, -31)))
	s.Save(ctx, testDocument("kept", now.AddDate(0, 0, -29)))

	r := NewRetentionScheduler(s, 30, "0 3 * * *", nil)
	r.now = func() time.Time { return now }

	n, err := r.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if _, err := s.Get(ctx, "kept"); err != nil {
		t.Errorf("kept document removed: %v", err)
	}
}

func TestRetentionScheduler_Disabled(t *testing.T) {
	s := newTestStore(t)
	r := NewRetentionScheduler(s, 0, "0 3 * * *", nil)
	if n, err := r.Prune(context.Background()); n != 0 || err != nil {
		t.Errorf("Prune() = %d, %v", n, err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.NextRun().IsZero() {
		t.Error("disabled scheduler has a next run")
	}
}

func TestRetentionScheduler_StartStop(t *testing.T) {
	s := newTestStore(t)
	r := NewRetentionScheduler(s, 7, "0 3 * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	next := r.NextRun()
	if next.IsZero() || next.Hour() != 3 {
		t.Errorf("NextRun() = %v, want 03:00", next)
	}
	r.Stop()
	if !r.NextRun().IsZero() {
		t.Error("stopped scheduler has a next run")
	}
}

func TestRetentionScheduler_Restart(t *testing.T) {
	r := NewRetentionScheduler(newTestStore(t), 7, "0 3 * * *", nil)

	for i := 0; i < 3; i++ {
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("Start() #%d error = %v", i+1, err)
		}
		if n := len(r.cron.Entries()); n != 1 {
			t.Errorf("after start #%d: %d cron entries, want 1", i+1, n)
		}
		r.Stop()
	}
	if n := len(r.cron.Entries()); n != 0 {
		t.Errorf("after stop: %d cron entries, want 0", n)
	}
}

func TestRetentionScheduler_StopsOnCancel(t *testing.T) {
	r := NewRetentionScheduler(newTestStore(t), 7, "0 3 * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for !r.NextRun().IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRetentionScheduler_InvalidSchedule(t *testing.T) {
	r := NewRetentionScheduler(newTestStore(t), 7, "whenever", nil)
	if err := r.Start(context.Background()); err == nil {
		t.Error("Start() accepted an invalid schedule")
	}
}
