package stats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/todmy/project-grader/internal/history"
)

func newStoreAndService(t *testing.T) (history.Store, *Service) {
	t.Helper()
	store := history.NewJSONStore(filepath.Join(t.TempDir(), "history.json"))
	return store, NewService(store)
}

func TestForUser_EmptyHistory(t *testing.T) {
	_, svc := newStoreAndService(t)

	got, err := svc.ForUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.TotalAnalyses != 0 {
		t.Errorf("expected 0 analyses, got %d", got.TotalAnalyses)
	}
	if got.AvgFileSize != 0 {
		t.Errorf("expected avg size 0, got %d", got.AvgFileSize)
	}
	if got.LastAnalysisDate != NoAnalysesSentinel {
		t.Errorf("expected sentinel date, got %q", got.LastAnalysisDate)
	}
}

func TestForUser_AverageFileSize(t *testing.T) {
	store, svc := newStoreAndService(t)
	ctx := context.Background()

	for _, size := range []int{100, 200, 300} {
		if _, err := store.Save(ctx, "alice", "f.pdf", strings.Repeat("x", size)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	got, err := svc.ForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.TotalAnalyses != 3 {
		t.Errorf("expected 3 analyses, got %d", got.TotalAnalyses)
	}
	if got.AvgFileSize != 200 {
		t.Errorf("expected avg size 200, got %d", got.AvgFileSize)
	}
	if got.LastAnalysisDate == NoAnalysesSentinel {
		t.Error("expected real last analysis date")
	}
}

func TestForUser_AverageTruncatesToInt(t *testing.T) {
	store, svc := newStoreAndService(t)
	ctx := context.Background()

	// Sizes 1 and 2 average to 1.5, reported as 1.
	for _, size := range []int{1, 2} {
		if _, err := store.Save(ctx, "alice", "f.pdf", strings.Repeat("x", size)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	got, err := svc.ForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.AvgFileSize != 1 {
		t.Errorf("expected truncated avg 1, got %d", got.AvgFileSize)
	}
}

func TestForSystem(t *testing.T) {
	store, svc := newStoreAndService(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "alice", "a.pdf", "one"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.Save(ctx, "bob", "b.pdf", "two"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// carol appears in the store but has no records.
	if _, err := store.Save(ctx, "carol", "c.pdf", "three"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.DeleteAll(ctx, "carol"); err != nil {
		t.Fatalf("delete all failed: %v", err)
	}

	got, err := svc.ForSystem(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.TotalUsers != 2 {
		t.Errorf("expected 2 users, got %d", got.TotalUsers)
	}
	if got.TotalAnalyses != 2 {
		t.Errorf("expected 2 analyses, got %d", got.TotalAnalyses)
	}
	if got.Users["alice"] != 1 || got.Users["bob"] != 1 {
		t.Errorf("unexpected per-user counts: %v", got.Users)
	}
	if _, ok := got.Users["carol"]; ok {
		t.Error("expected carol to be excluded from per-user counts")
	}
}

func TestForUser_AfterDeleteAll(t *testing.T) {
	store, svc := newStoreAndService(t)
	ctx := context.Background()

	for _, size := range []int{100, 200, 300} {
		if _, err := store.Save(ctx, "alice", "f.pdf", strings.Repeat("x", size)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := store.DeleteAll(ctx, "alice"); err != nil {
		t.Fatalf("delete all failed: %v", err)
	}

	records, err := store.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}

	got, err := svc.ForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.TotalAnalyses != 0 {
		t.Errorf("expected 0 analyses after delete all, got %d", got.TotalAnalyses)
	}
}
