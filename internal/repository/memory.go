package repository

import (
	"context"
	"sync"
	"time"

	"pathfinder/internal/domain"
)

// Memory is a process-local Repository
type Memory struct {
	mu     sync.RWMutex
	record *SessionRecord
	now    func() time.Time
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// SaveSession replaces the stored session
func (m *Memory) SaveSession(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = &SessionRecord{Session: s, SavedAt: m.now().UTC()}
	return nil
}

// LoadSession returns a copy of the stored session
func (m *Memory) LoadSession(_ context.Context) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.record == nil {
		return nil, ErrNoSession
	}
	rec := *m.record
	return &rec, nil
}

// ClearSession forgets the stored session
func (m *Memory) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

var _ Repository = (*Memory)(nil)
