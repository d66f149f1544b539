package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	return NewJSONStore(filepath.Join(t.TempDir(), "history.json"))
}

func TestJSONStore_SaveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Save(ctx, "alice", "f.pdf", "text")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetByID(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record to be returned")
	}

	if got.FileName != "f.pdf" {
		t.Errorf("expected file name f.pdf, got %s", got.FileName)
	}
	if got.SizeChars != len("text") {
		t.Errorf("expected size %d, got %d", len("text"), got.SizeChars)
	}
	if got.Result != "text" {
		t.Errorf("expected result text, got %s", got.Result)
	}
	if got.Username != "alice" {
		t.Errorf("expected username alice, got %s", got.Username)
	}
}

func TestJSONStore_SizeCountsCharacters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Thai text: 12 characters, 36 bytes in UTF-8.
	result := "ผลการวิเคราะ"
	if len(result) == utf8.RuneCountInString(result) {
		t.Fatal("test input must be multibyte")
	}

	rec, err := store.Save(ctx, "alice", "f.pdf", result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if want := utf8.RuneCountInString(result); rec.SizeChars != want {
		t.Errorf("expected size %d (characters), got %d", want, rec.SizeChars)
	}
}

func TestJSONStore_IDsAreUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Save(ctx, "alice", "f.pdf", "text"); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	records, err := store.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	seen := map[int]bool{}
	for _, rec := range records {
		if seen[rec.ID] {
			t.Errorf("duplicate id %d", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestJSONStore_HistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}
	i := 0
	store.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	for range times {
		if _, err := store.Save(ctx, "alice", "f.pdf", "text"); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	records, err := store.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	for j := 0; j < len(records)-1; j++ {
		if records[j].Timestamp.Before(records[j+1].Timestamp) {
			t.Errorf("records not sorted newest first at index %d", j)
		}
	}
	if !records[0].Timestamp.Equal(times[2]) {
		t.Errorf("expected newest record first, got %v", records[0].Timestamp)
	}
}

func TestJSONStore_HistoryUnknownUser(t *testing.T) {
	store := newTestStore(t)

	records, err := store.History(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestJSONStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Save(ctx, "alice", "f.pdf", "text")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	removed, err := store.Delete(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if !removed {
		t.Error("expected first delete to remove the record")
	}

	removed, err = store.Delete(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if removed {
		t.Error("expected second delete to be a no-op")
	}

	got, err := store.GetByID(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expected record to be gone")
	}
}

func TestJSONStore_DeleteAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Save(ctx, "alice", "f.pdf", "text"); err != nil {
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

	// The user key survives in the backing file.
	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if count, ok := counts["alice"]; !ok || count != 0 {
		t.Errorf("expected alice with 0 records, got %v (present: %v)", count, ok)
	}
}

func TestJSONStore_MissingFileReadsEmpty(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	counts, err := store.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected empty store, got %v", counts)
	}
}

func TestJSONStore_MalformedFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := NewJSONStore(path)
	records, err := store.History(context.Background(), "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestJSONStore_LegacyFlatListImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `{
		"analyses": [
			{"id": 7, "username": "alice", "timestamp": "2025-01-01T10:00:00Z", "file_name": "a.pdf", "file_size_chars": 10, "result": "first"},
			{"id": 9, "username": "bob", "timestamp": "2025-01-02T10:00:00Z", "file_name": "b.pdf", "file_size_chars": 20, "result": "second"},
			{"id": 12, "username": "alice", "timestamp": "2025-01-03T10:00:00Z", "file_name": "c.pdf", "result": "third"}
		]
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := NewJSONStore(path)
	ctx := context.Background()

	records, err := store.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 alice records, got %d", len(records))
	}

	// IDs are renumbered per user during the import.
	seen := map[int]bool{}
	for _, rec := range records {
		if rec.ID < 1 || rec.ID > 2 {
			t.Errorf("expected renumbered id in [1,2], got %d", rec.ID)
		}
		if seen[rec.ID] {
			t.Errorf("duplicate id %d after import", rec.ID)
		}
		seen[rec.ID] = true
	}

	// Missing file_size_chars defaults to zero.
	if records[0].FileName != "c.pdf" {
		t.Fatalf("expected newest record c.pdf first, got %s", records[0].FileName)
	}
	if records[0].SizeChars != 0 {
		t.Errorf("expected default size 0, got %d", records[0].SizeChars)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts["alice"] != 2 || counts["bob"] != 1 {
		t.Errorf("unexpected counts after import: %v", counts)
	}
}

func TestJSONStore_UserNamedAnalysesIsNotLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	// Canonical layout whose single user happens to be named "analyses";
	// the non-sequential IDs must survive the read untouched.
	canonical := `{
		"analyses": [
			{"id": 3, "username": "analyses", "timestamp": "2025-01-01T10:00:00Z", "file_name": "a.pdf", "file_size_chars": 10, "result": "first"},
			{"id": 7, "username": "analyses", "timestamp": "2025-01-02T10:00:00Z", "file_name": "b.pdf", "file_size_chars": 20, "result": "second"}
		]
	}`
	if err := os.WriteFile(path, []byte(canonical), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := NewJSONStore(path)
	ctx := context.Background()

	records, err := store.History(ctx, "analyses")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != 7 || records[1].ID != 3 {
		t.Errorf("expected ids preserved (7, 3), got (%d, %d)", records[0].ID, records[1].ID)
	}

	rec, err := store.GetByID(ctx, "analyses", 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec == nil || rec.FileName != "b.pdf" {
		t.Errorf("expected record 7 to resolve to b.pdf, got %+v", rec)
	}
}

func TestJSONStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	first := NewJSONStore(path)
	if _, err := first.Save(ctx, "alice", "f.pdf", "text"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := NewJSONStore(path)
	records, err := second.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record after reopen, got %d", len(records))
	}
}
