package auth

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

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// JSONRepository stores users in a single JSON file. It is the backing used
// when the server runs without Postgres, and uses the same advisory-lock and
// atomic-rename discipline as the analysis history store.
type JSONRepository struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
	now  func() time.Time
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{
		path: path,
		fl:   flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// userRecord is the on-disk form of User. The API type hides the password
// hash from JSON responses (`json:"-"`), so persistence needs its own
// representation that keeps the hash.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserRecord(u *User) userRecord {
	return userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (rec userRecord) toUser() *User {
	return &User{
		ID:           rec.ID,
		Username:     rec.Username,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
		Status:       rec.Status,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func (r *JSONRepository) load() map[string]*User {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("users: failed to read %s, starting empty: %v", r.path, err)
		}
		return map[string]*User{}
	}

	var records map[string]userRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("users: corrupt file %s, starting empty: %v", r.path, err)
		return map[string]*User{}
	}

	users := make(map[string]*User, len(records))
	for id, rec := range records {
		users[id] = rec.toUser()
	}
	return users
}

func (r *JSONRepository) persist(users map[string]*User) error {
	records := make(map[string]userRecord, len(users))
	for id, u := range users {
		records[id] = toUserRecord(u)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}

func (r *JSONRepository) lock() (func(), error) {
	r.mu.Lock()
	if err := r.fl.Lock(); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}
	return func() {
		r.fl.Unlock()
		r.mu.Unlock()
	}, nil
}

func (r *JSONRepository) Create(ctx context.Context, user *User) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	users := r.load()
	for _, u := range users {
		if u.Username == user.Username {
			return ErrUserExists
		}
	}

	// Generate UUID for the user
	user.ID = uuid.New().String()

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	users[user.ID] = user

	return r.persist(users)
}

func (r *JSONRepository) GetByID(ctx context.Context, id string) (*User, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, ok := r.load()[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (r *JSONRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, u := range r.load() {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *JSONRepository) List(ctx context.Context) ([]*User, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	users := r.load()
	out := make([]*User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *JSONRepository) Update(ctx context.Context, user *User) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	users := r.load()
	if _, ok := users[user.ID]; !ok {
		return ErrUserNotFound
	}

	user.UpdatedAt = r.now()
	users[user.ID] = user

	return r.persist(users)
}

func (r *JSONRepository) Delete(ctx context.Context, id string) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	users := r.load()
	if _, ok := users[id]; !ok {
		return ErrUserNotFound
	}
	delete(users, id)

	return r.persist(users)
}
