package repository

import (
	"context"
	"errors"
	"time"

	"pathfinder/internal/domain"
)

// ErrNoSession is returned by LoadSession when no session is stored
var ErrNoSession = errors.New("no stored session")

// SessionRecord is a stored session and when it was saved
type SessionRecord struct {
	Session domain.Session
	SavedAt time.Time
}

// Repository persists the single held session
type Repository interface {
	SaveSession(ctx context.Context, s domain.Session) error
	LoadSession(ctx context.Context) (*SessionRecord, error)
	ClearSession(ctx context.Context) error

	// Close releases resources
	Close() error
}
