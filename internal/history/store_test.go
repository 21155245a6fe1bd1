package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/poller"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordSubmittedThenOutcome(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	settings := entity.VideoSettings{Resolution: entity.Resolution720p, FPS: 30, Duration: 60, Quality: entity.QualityMedium}

	if err := store.RecordSubmitted(ctx, "task-1", settings, "Dinner"); err != nil {
		t.Fatalf("RecordSubmitted returned error: %v", err)
	}
	snap := poller.Snapshot{
		State: poller.StateCompleted,
		Task:  entity.GenerationTask{TaskID: "task-1", Status: entity.TaskCompleted, Progress: 100, VideoURL: "/v.mp4"},
	}
	if err := store.RecordOutcome(ctx, snap); err != nil {
		t.Fatalf("RecordOutcome returned error: %v", err)
	}

	rec, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if diff := cmp.Diff(settings, rec.Settings); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
	if rec.Title != "Dinner" || rec.State != poller.StateCompleted || rec.Progress != 100 || rec.VideoURL != "/v.mp4" || !rec.Finished() {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.SubmittedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", rec)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		if err := store.RecordSubmitted(ctx, id, entity.DefaultVideoSettings(), id); err != nil {
			t.Fatalf("RecordSubmitted returned error: %v", err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.TaskID)
	}
	if diff := cmp.Diff([]string{"new", "mid"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUnknownTask(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordOutcomeIgnoresEmptyTask(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordOutcome(context.Background(), poller.Snapshot{State: poller.StateIdle}); err != nil {
		t.Fatalf("RecordOutcome returned error: %v", err)
	}
	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first Open returned error: %v", err)
	}
	if err := first.RecordSubmitted(context.Background(), "keep", entity.DefaultVideoSettings(), ""); err != nil {
		t.Fatalf("RecordSubmitted returned error: %v", err)
	}
	_ = first.Close()

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open returned error: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("record lost across reopen: %v", err)
	}
}
