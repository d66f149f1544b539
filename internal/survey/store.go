package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// User types a response can come from
const (
	TypeTeacher = "teacher"
	TypeStudent = "student"
)

// Response is one submitted satisfaction survey
type Response struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	UserType  string             `json:"user_type"`
	Username  string             `json:"username"`
	Name      string             `json:"name"`
	Answers   map[string]float64 `json:"responses"`
	Comment   string             `json:"comment,omitempty"`
}

// Metadata tracks response counts for the research export
type Metadata struct {
	CreatedAt        time.Time `json:"created_at"`
	TotalResponses   int       `json:"total_responses"`
	TeacherResponses int       `json:"teacher_responses"`
	StudentResponses int       `json:"student_responses"`
	LastUpdated      time.Time `json:"last_updated,omitzero"`
}

type file struct {
	Surveys  []Response `json:"surveys"`
	Metadata Metadata   `json:"metadata"`
}

// Store persists survey responses in a single JSON file, using the same
// lock-and-rewrite discipline as the analysis history store.
type Store struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
	now  func() time.Time
}

// NewStore creates a survey store backed by the file at path
func NewStore(path string) *Store {
	return &Store{
		path: path,
		fl:   flock.New(path + ".lock"),
		now:  time.Now,
	}
}

func (s *Store) load() file {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("survey: failed to read %s, treating as empty: %v", s.path, err)
		}
		return file{Metadata: Metadata{CreatedAt: s.now()}}
	}

	var data file
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("survey: malformed store %s, treating as empty: %v", s.path, err)
		return file{Metadata: Metadata{CreatedAt: s.now()}}
	}
	return data
}

func (s *Store) persist(data file) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode survey store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write survey store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace survey store: %w", err)
	}
	return nil
}

func (s *Store) lock() (func(), error) {
	s.mu.Lock()
	if err := s.fl.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock survey store: %w", err)
	}
	return func() {
		s.fl.Unlock()
		s.mu.Unlock()
	}, nil
}

// Add appends a survey response and refreshes the metadata counters
func (s *Store) Add(ctx context.Context, userType, username, name string, answers map[string]float64, comment string) (*Response, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data := s.load()
	now := s.now()

	resp := Response{
		ID:        fmt.Sprintf("SURVEY_%s_%d", now.Format("20060102_150405"), len(data.Surveys)+1),
		Timestamp: now,
		UserType:  userType,
		Username:  username,
		Name:      name,
		Answers:   answers,
		Comment:   comment,
	}
	data.Surveys = append(data.Surveys, resp)

	data.Metadata.TotalResponses = len(data.Surveys)
	data.Metadata.LastUpdated = now
	teachers, students := 0, 0
	for _, r := range data.Surveys {
		switch r.UserType {
		case TypeTeacher:
			teachers++
		case TypeStudent:
			students++
		}
	}
	data.Metadata.TeacherResponses = teachers
	data.Metadata.StudentResponses = students

	if err := s.persist(data); err != nil {
		return nil, err
	}
	return &resp, nil
}

// All returns every stored response
func (s *Store) All(ctx context.Context) ([]Response, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.load().Surveys, nil
}

// ByType returns responses from one user type
func (s *Store) ByType(ctx context.Context, userType string) ([]Response, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Response
	for _, r := range all {
		if r.UserType == userType {
			out = append(out, r)
		}
	}
	return out, nil
}

// Meta returns the store's metadata block
func (s *Store) Meta(ctx context.Context) (Metadata, error) {
	unlock, err := s.lock()
	if err != nil {
		return Metadata{}, err
	}
	defer unlock()
	return s.load().Metadata, nil
}

// HasResponded reports whether the user already submitted a response
func (s *Store) HasResponded(ctx context.Context, username string) (bool, error) {
	all, err := s.All(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range all {
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}
