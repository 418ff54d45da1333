package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pathfinder/internal/client"
	"pathfinder/internal/domain"
	"pathfinder/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SessionStore owns the bearer token and the identity behind it.
//
// It is the client.Authorizer for every authenticated request, so a 401 on
// any endpoint lands in Expire and clears the session. Each change to the
// held session bumps Generation; callers compare generations to discard
// responses that outlived the session they were issued under.
type SessionStore struct {
	api    AuthAPI
	repo   repository.Repository
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	session    *domain.Session
	generation atomic.Uint64
}

// NewSessionStore creates a session store. A nil repo keeps the session in
// memory only.
func NewSessionStore(api AuthAPI, repo repository.Repository, logger *zap.Logger) *SessionStore {
	if repo == nil {
		repo = repository.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		api:    api,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Token returns the held bearer token, or "" when logged out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// Expire drops the session after the server rejected its token
func (s *SessionStore) Expire(reason string) {
	s.logger.Info("session expired", zap.String("reason", reason))
	if err := s.Logout(context.Background()); err != nil {
		s.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
}

// Generation increases every time the held session changes
func (s *SessionStore) Generation() uint64 {
	return s.generation.Load()
}

// Authenticated reports whether a session is held
func (s *SessionStore) Authenticated() bool {
	return s.Token() != ""
}

// Session returns a copy of the held session
func (s *SessionStore) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

// Register creates an account. Only presence is checked here; any richer
// rule is the backend's to enforce.
func (s *SessionStore) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.NewError(domain.KindValidation, "username and password are required")
	}
	if _, err := s.api.Register(ctx, client.Credentials{Username: username, Password: password}); err != nil {
		return err
	}
	s.logger.Info("registered account", zap.String("username", username))
	return nil
}

// Login exchanges credentials for a session and resolves its user
func (s *SessionStore) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.NewError(domain.KindAuth, "username and password are required")
	}

	token, err := s.api.Login(ctx, client.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	s.set(&domain.Session{Token: token})
	gen := s.Generation()

	user, err := s.api.Me(ctx)
	if err != nil {
		if gen == s.Generation() {
			s.clear()
		}
		return nil, err
	}
	if gen != s.Generation() {
		return nil, domain.ErrStaleResponse
	}

	session := domain.Session{Token: token, User: *user}
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	s.persist(ctx, session)

	s.logger.Info("logged in", zap.String("username", user.Username), zap.Int64("user_id", user.ID))
	return &session, nil
}

// CurrentUser resolves the identity of the held token against the server.
// The token is first checked locally: a token that is not a JWT, or whose
// exp claim has passed, ends the session without a request.
func (s *SessionStore) CurrentUser(ctx context.Context) (*domain.User, error) {
	token := s.Token()
	if token == "" {
		return nil, domain.SessionExpired("not logged in")
	}
	if err := s.checkToken(token); err != nil {
		s.Expire(err.Error())
		return nil, err
	}

	gen := s.Generation()
	user, err := s.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	if gen != s.Generation() {
		return nil, domain.ErrStaleResponse
	}

	s.mu.Lock()
	changed := s.session != nil && s.session.User != *user
	if s.session != nil {
		s.session.User = *user
	}
	var snapshot domain.Session
	if s.session != nil {
		snapshot = *s.session
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx, snapshot)
	}
	return user, nil
}

// Logout clears the held session and its persisted copy. Safe to call when
// already logged out.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.clear()
	if err := s.repo.ClearSession(ctx); err != nil {
		return err
	}
	return nil
}

// Restore adopts a persisted session from a previous run. It reports whether
// a usable session was found; stale or malformed ones are discarded.
func (s *SessionStore) Restore(ctx context.Context) (bool, error) {
	rec, err := s.repo.LoadSession(ctx)
	if errors.Is(err, repository.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.checkToken(rec.Session.Token); err != nil {
		s.logger.Info("discarding stored session", zap.Error(err))
		return false, s.repo.ClearSession(ctx)
	}

	session := rec.Session
	s.set(&session)
	s.logger.Debug("restored session",
		zap.String("username", session.User.Username),
		zap.Time("saved_at", rec.SavedAt),
	)
	return true, nil
}

// checkToken parses the token without verifying its signature; only the
// server can do that. It catches garbage and tokens past exp.
func (s *SessionStore) checkToken(token string) error {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.SessionExpired("session token is malformed").WithCause(err)
	}
	if claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		return domain.SessionExpired("session expired")
	}
	return nil
}

func (s *SessionStore) set(session *domain.Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	s.generation.Add(1)
}

func (s *SessionStore) clear() {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()
	if had {
		s.generation.Add(1)
	}
}

func (s *SessionStore) persist(ctx context.Context, session domain.Session) {
	if err := s.repo.SaveSession(ctx, session); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}

var _ client.Authorizer = (*SessionStore)(nil)
