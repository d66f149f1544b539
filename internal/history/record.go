package history

import (
	"context"
	"time"
)

// Record represents one stored analysis result for one user
type Record struct {
	ID        int       `json:"id"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	FileName  string    `json:"file_name"`
	SizeChars int       `json:"file_size_chars"`
	Result    string    `json:"result"`
}

// Store defines the interface for analysis history persistence
type Store interface {
	// Save creates a new record for the user with a freshly assigned ID
	// and the current timestamp.
	Save(ctx context.Context, username, fileName, result string) (*Record, error)

	// History returns all records for a user, newest first. Unknown users
	// get an empty slice, not an error.
	History(ctx context.Context, username string) ([]Record, error)

	// GetByID returns the matching record, or nil if not found.
	GetByID(ctx context.Context, username string, id int) (*Record, error)

	// Delete removes the matching record. It reports whether a record was
	// actually removed; deleting an absent ID is not an error.
	Delete(ctx context.Context, username string, id int) (bool, error)

	// DeleteAll clears a user's entire history.
	DeleteAll(ctx context.Context, username string) error

	// Counts returns the number of records per username.
	Counts(ctx context.Context) (map[string]int, error)
}
