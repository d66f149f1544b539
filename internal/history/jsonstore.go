package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
)

// JSONStore implements Store on top of a single JSON file mapping usernames
// to their ordered record lists. Every mutation is a full
// read-modify-write of the file, serialized by an in-process mutex plus an
// advisory file lock so that multiple server processes sharing the file
// cannot lose each other's writes.
type JSONStore struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
	now  func() time.Time
}

// NewJSONStore creates a JSONStore backed by the file at path. The file is
// created on the first write; a missing file reads as an empty store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		fl:   flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// legacyFile is the flat-list layout used by an earlier version of the
// application. It is accepted on read only and normalized to the per-user
// map on the next write.
type legacyFile struct {
	Analyses []Record `json:"analyses"`
}

// load reads the backing file. Read failures (missing file, malformed
// content) are logged and downgraded to an empty store.
func (s *JSONStore) load() map[string][]Record {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("history: failed to read %s, treating as empty: %v", s.path, err)
		}
		return map[string][]Record{}
	}

	if data, ok := decodeLegacy(raw); ok {
		return data
	}

	var data map[string][]Record
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("history: malformed store %s, treating as empty: %v", s.path, err)
		return map[string][]Record{}
	}
	if data == nil {
		data = map[string][]Record{}
	}
	for username, records := range data {
		for i := range records {
			records[i].Username = username
		}
	}
	return data
}

// decodeLegacy detects the flat-list layout: a top-level object whose only
// key is "analyses" holding records that carry their own username. A
// canonical store whose single user is literally named "analyses" has the
// same outer shape; since all of its records then name that user, require
// at least one record naming a different user before treating the file as
// legacy. The fully ambiguous case decodes the same way under both layouts.
func decodeLegacy(raw []byte) (map[string][]Record, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false
	}
	if len(keys) != 1 {
		return nil, false
	}
	if _, ok := keys["analyses"]; !ok {
		return nil, false
	}

	var legacy legacyFile
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, false
	}

	otherUser := false
	for _, rec := range legacy.Analyses {
		if rec.Username == "" {
			return nil, false
		}
		if rec.Username != "analyses" {
			otherUser = true
		}
	}
	if !otherUser {
		return nil, false
	}

	data := map[string][]Record{}
	for _, rec := range legacy.Analyses {
		data[rec.Username] = append(data[rec.Username], rec)
	}
	// Re-number per user so IDs stay unique within each collection.
	for username, records := range data {
		for i := range records {
			records[i].ID = i + 1
		}
		data[username] = records
	}
	return data, true
}

// persist writes the store atomically: marshal to a temp file in the same
// directory, then rename over the backing file.
func (s *JSONStore) persist(data map[string][]Record) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// lock acquires both the in-process mutex and the advisory file lock.
func (s *JSONStore) lock() (func(), error) {
	s.mu.Lock()
	if err := s.fl.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock store: %w", err)
	}
	return func() {
		s.fl.Unlock()
		s.mu.Unlock()
	}, nil
}

// Save appends a new record to the user's history and persists the store.
func (s *JSONStore) Save(ctx context.Context, username, fileName, result string) (*Record, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data := s.load()
	rec := Record{
		ID:        len(data[username]) + 1,
		Username:  username,
		Timestamp: s.now(),
		FileName:  fileName,
		SizeChars: utf8.RuneCountInString(result),
		Result:    result,
	}
	data[username] = append(data[username], rec)

	if err := s.persist(data); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History returns the user's records sorted by timestamp descending.
func (s *JSONStore) History(ctx context.Context, username string) ([]Record, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records := append([]Record(nil), s.load()[username]...)
	sortNewestFirst(records)
	return records, nil
}

// GetByID scans the user's history for a matching ID.
func (s *JSONStore) GetByID(ctx context.Context, username string, id int) (*Record, error) {
	records, err := s.History(ctx, username)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Delete removes the matching record, if any, and persists the store.
func (s *JSONStore) Delete(ctx context.Context, username string, id int) (bool, error) {
	unlock, err := s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	data := s.load()
	records, ok := data[username]
	if !ok {
		return false, nil
	}

	kept := records[:0]
	removed := false
	for _, rec := range records {
		if rec.ID == id {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return false, nil
	}

	data[username] = kept
	if err := s.persist(data); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAll clears the user's history while preserving the user key.
func (s *JSONStore) DeleteAll(ctx context.Context, username string) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	data := s.load()
	data[username] = []Record{}
	return s.persist(data)
}

// Counts returns the number of records stored per username.
func (s *JSONStore) Counts(ctx context.Context) (map[string]int, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	counts := map[string]int{}
	for username, records := range s.load() {
		counts[username] = len(records)
	}
	return counts, nil
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID > records[j].ID
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
