package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pathfinder/internal/domain"
	"pathfinder/internal/repository"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid string", sql.NullString{String: "test", Valid: true}, "test"},
		{"invalid string", sql.NullString{String: "test", Valid: false}, ""},
		{"empty valid string", sql.NullString{String: "", Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestStringToNull(t *testing.T) {
	assertEqual(t, sql.NullString{}, stringToNull(""))
	assertEqual(t, sql.NullString{String: "alice", Valid: true}, stringToNull("alice"))
}

func TestIDConversions(t *testing.T) {
	assertEqual(t, sql.NullInt64{}, idToNull(0))
	assertEqual(t, sql.NullInt64{Int64: 7, Valid: true}, idToNull(7))
	assertEqual(t, int64(0), nullToID(sql.NullInt64{}))
	assertEqual(t, int64(7), nullToID(sql.NullInt64{Int64: 7, Valid: true}))
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 4, 5, 6, 7, 8, time.FixedZone("x", 3600))
	out, err := parseTime(formatTime(in))
	assertNoError(t, err)
	if !out.Equal(in) {
		t.Fatalf("expected %v, got %v", in, out)
	}
}

func TestLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LoadSession(context.Background())
	if !errors.Is(err, repository.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	repo := newTestRepo(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	s := domain.Session{Token: "tok", User: domain.User{ID: 3, Username: "alice"}}
	assertNoError(t, repo.SaveSession(ctx, s))

	rec, err := repo.LoadSession(ctx)
	assertNoError(t, err)
	assertEqual(t, s, rec.Session)
	if !rec.SavedAt.Equal(fixed) {
		t.Fatalf("SavedAt = %v, want %v", rec.SavedAt, fixed)
	}
}

func TestSaveSessionWithoutUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveSession(ctx, domain.Session{Token: "tok"}))

	rec, err := repo.LoadSession(ctx)
	assertNoError(t, err)
	assertEqual(t, domain.Session{Token: "tok"}, rec.Session)
}

func TestSaveSessionReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveSession(ctx, domain.Session{Token: "one", User: domain.User{ID: 1, Username: "a"}}))
	assertNoError(t, repo.SaveSession(ctx, domain.Session{Token: "two"}))

	rec, err := repo.LoadSession(ctx)
	assertNoError(t, err)
	assertEqual(t, domain.Session{Token: "two"}, rec.Session)

	var count int
	assertNoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM session`).Scan(&count))
	assertEqual(t, 1, count)
}

func TestSaveSessionRequiresToken(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.SaveSession(context.Background(), domain.Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestClearSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveSession(ctx, domain.Session{Token: "tok"}))
	assertNoError(t, repo.ClearSession(ctx))
	assertNoError(t, repo.ClearSession(ctx))

	_, err := repo.LoadSession(ctx)
	if !errors.Is(err, repository.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.SaveSession(ctx, domain.Session{Token: "persisted", User: domain.User{ID: 9, Username: "bob"}}))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	rec, err := reopened.LoadSession(ctx)
	assertNoError(t, err)
	assertEqual(t, "persisted", rec.Session.Token)
	assertEqual(t, "bob", rec.Session.User.Username)
}
