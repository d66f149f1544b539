package history

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"
)

// PostgresStore implements Store using PostgreSQL. IDs remain per-user
// monotonic to stay compatible with histories imported from the JSON store.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Save inserts a new record with the next per-user ID
func (s *PostgresStore) Save(ctx context.Context, username, fileName, result string) (*Record, error) {
	rec := &Record{
		Username:  username,
		Timestamp: s.now(),
		FileName:  fileName,
		SizeChars: utf8.RuneCountInString(result),
		Result:    result,
	}

	query := `
		INSERT INTO analyses (id, username, file_name, timestamp, file_size_chars, result)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5
		FROM analyses WHERE username = $1
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		username,
		fileName,
		rec.Timestamp,
		rec.SizeChars,
		result,
	).Scan(&rec.ID)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// History retrieves all records for a user, newest first
func (s *PostgresStore) History(ctx context.Context, username string) ([]Record, error) {
	query := `
		SELECT id, username, file_name, timestamp, file_size_chars, result
		FROM analyses
		WHERE username = $1
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ID,
			&rec.Username,
			&rec.FileName,
			&rec.Timestamp,
			&rec.SizeChars,
			&rec.Result,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// GetByID retrieves one record by its per-user ID
func (s *PostgresStore) GetByID(ctx context.Context, username string, id int) (*Record, error) {
	query := `
		SELECT id, username, file_name, timestamp, file_size_chars, result
		FROM analyses
		WHERE username = $1 AND id = $2
	`

	rec := &Record{}
	err := s.db.QueryRowContext(ctx, query, username, id).Scan(
		&rec.ID,
		&rec.Username,
		&rec.FileName,
		&rec.Timestamp,
		&rec.SizeChars,
		&rec.Result,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// Delete removes one record and reports whether a row was removed
func (s *PostgresStore) Delete(ctx context.Context, username string, id int) (bool, error) {
	query := `DELETE FROM analyses WHERE username = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, query, username, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteAll removes all records for a user
func (s *PostgresStore) DeleteAll(ctx context.Context, username string) error {
	query := `DELETE FROM analyses WHERE username = $1`
	_, err := s.db.ExecContext(ctx, query, username)
	return err
}

// Counts returns the number of records per username
func (s *PostgresStore) Counts(ctx context.Context) (map[string]int, error) {
	query := `SELECT username, COUNT(*) FROM analyses GROUP BY username`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var username string
		var count int
		if err := rows.Scan(&username, &count); err != nil {
			return nil, err
		}
		counts[username] = count
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
