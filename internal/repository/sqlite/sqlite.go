package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pathfinder/internal/domain"
	"pathfinder/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the state database at dbPath.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: an in-memory database is per-connection, and the
	// table never holds more than one row
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		user_id INTEGER,
		username TEXT,
		saved_at TEXT NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSession replaces the stored session
func (r *Repository) SaveSession(ctx context.Context, s domain.Session) error {
	if s.Token == "" {
		return fmt.Errorf("refusing to store a session without a token")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, user_id, username, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			saved_at = excluded.saved_at
	`, s.Token, idToNull(s.User.ID), stringToNull(s.User.Username), formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session or repository.ErrNoSession
func (r *Repository) LoadSession(ctx context.Context) (*repository.SessionRecord, error) {
	var (
		token    string
		userID   sql.NullInt64
		username sql.NullString
		savedAt  string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, username, saved_at FROM session WHERE id = 1
	`).Scan(&token, &userID, &username, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	ts, err := parseTime(savedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved_at: %w", err)
	}

	return &repository.SessionRecord{
		Session: domain.Session{
			Token: token,
			User: domain.User{
				ID:       nullToID(userID),
				Username: nullToString(username),
			},
		},
		SavedAt: ts,
	}, nil
}

// ClearSession removes the stored session
func (r *Repository) ClearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

var _ repository.Repository = (*Repository)(nil)
