package history

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixlim/keyprint/internal/config"
)

func attempt(user, outcome string) Attempt {
	return Attempt{
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
		UserID:      user,
		EventCount:  42,
		Outcome:     outcome,
		Message:     "Predicted User: " + user,
		Predicted:   user,
	}
}

func TestMemoryStore_RecentNewestFirstAndEviction(t *testing.T) {
	store := NewMemoryStore(3)
	for _, u := range []string{"a", "b", "c", "d"} {
		store.Record(attempt(u, "predicted"))
	}

	require.Equal(t, 3, store.Len())
	recent := store.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"d", "c", "b"}, []string{recent[0].UserID, recent[1].UserID, recent[2].UserID})
	assert.Equal(t, int64(4), recent[0].ID)

	limited := store.Recent(1)
	require.Len(t, limited, 1)
	assert.Equal(t, "d", limited[0].UserID)
}

func TestMemoryStore_EmptyRecent(t *testing.T) {
	assert.Nil(t, NewMemoryStore(5).Recent(10))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteStore(dbPath, 30, 10)
	require.NoError(t, err)

	store.Record(attempt("alice", "predicted"))
	store.Record(attempt("unknown", "transport_error"))

	recent := store.Recent(10)
	require.Len(t, recent, 2, "recent attempts are served from memory before the writer flushes")
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath, 30, 10)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	recent = reopened.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "unknown", recent[0].UserID)
	assert.Equal(t, "transport_error", recent[0].Outcome)
	assert.Equal(t, "alice", recent[1].UserID)
	assert.Equal(t, 42, recent[1].EventCount)
	assert.False(t, recent[1].SubmittedAt.IsZero())

	reopened.Record(attempt("bob", "predicted"))
	assert.Equal(t, int64(3), reopened.Recent(1)[0].ID, "ids continue after the persisted maximum")
}

func TestSQLiteStore_PurgesExpiredOnOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteStore(dbPath, 30, 10)
	require.NoError(t, err)
	old := attempt("old", "predicted")
	old.SubmittedAt = time.Now().AddDate(0, 0, -60)
	store.Record(old)
	store.Record(attempt("new", "predicted"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath, 30, 10)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	recent := reopened.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].UserID)
}

func TestSQLiteStore_CloseIsIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "h.db"), 30, 10)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	store.Record(attempt("late", "predicted"))
	assert.Equal(t, int64(0), store.DroppedWrites())
}

func TestSchema_RejectsNewerVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "future.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO schema_version (version) VALUES (99)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenDB(dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than this keyprint supports")
}

func TestNewStore_FallsBackToMemory(t *testing.T) {
	store, persistent, err := NewStore(config.HistoryConfig{RecentLimit: 5, RetentionDays: 30})
	require.NoError(t, err)
	assert.False(t, persistent)
	_, ok := store.(*MemoryStore)
	assert.True(t, ok)

	store, persistent, err = NewStore(config.HistoryConfig{
		DBPath:        filepath.Join(t.TempDir(), "nested", "history.db"),
		RecentLimit:   5,
		RetentionDays: 30,
	})
	require.NoError(t, err)
	assert.True(t, persistent)
	require.NoError(t, store.Close())
}
