package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

func newTestStore(t *testing.T) *FolderSessionStore {
	t.Helper()
	store, err := NewFolderSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestFolderSessionStore_CreateReadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, session.PlanDownload(2))
	require.NoError(t, session.FileCompleted())

	require.NoError(t, store.Create(session))

	got, err := store.Read(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestFolderSessionStore_CreateTwice(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()

	require.NoError(t, store.Create(session))
	err := store.Create(session)

	assert.ErrorIs(t, err, domain.ErrSessionExists)
}

func TestFolderSessionStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("nope")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFolderSessionStore_ReadCorruptRecord(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, store.Create(session))

	recordPath := filepath.Join(store.Dir(session.ID), sessionRecordName)
	require.NoError(t, os.WriteFile(recordPath, []byte("{not json"), 0644))

	_, err := store.Read(session.ID)

	assert.ErrorIs(t, err, domain.ErrSessionUnreadable)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFolderSessionStore_WriteWithoutFolder(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()

	err := store.Write(session)

	assert.ErrorIs(t, err, domain.ErrSessionUnwritable)
}

func TestFolderSessionStore_WriteUpdatesRecord(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, store.Create(session))

	require.NoError(t, session.PlanDownload(1))
	require.NoError(t, store.Write(session))

	got, err := store.Read(session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDownloading, got.Phase)
	assert.Equal(t, 1, got.Progress.Download.Total)
}

func TestFolderSessionStore_WriteLeavesOnlyRecord(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, store.Create(session))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(session))
	}

	entries, err := os.ReadDir(store.Dir(session.ID))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sessionRecordName, entries[0].Name())
}

func TestFolderSessionStore_ReadDuringWrites(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, session.PlanDownload(2))
	require.NoError(t, store.Create(session))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := store.Write(session); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	// every read must see a complete record, never a torn one
	for i := 0; i < 200; i++ {
		got, err := store.Read(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
	}
	<-done
}

func TestFolderSessionStore_DestroyIdempotent(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, store.Create(session))

	// scratch file alongside the record is removed too
	scratch := filepath.Join(store.Dir(session.ID), "video.mp4")
	require.NoError(t, os.WriteFile(scratch, []byte("data"), 0644))

	require.NoError(t, store.Destroy(session.ID))
	assert.False(t, store.Exists(session.ID))
	assert.NoFileExists(t, scratch)

	// second destroy is a no-op, not an error
	require.NoError(t, store.Destroy(session.ID))
}

func TestFolderSessionStore_Exists(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()

	assert.False(t, store.Exists(session.ID))
	require.NoError(t, store.Create(session))
	assert.True(t, store.Exists(session.ID))
}

func TestFolderSessionStore_Stale(t *testing.T) {
	store := newTestStore(t)
	old := domain.NewSession()
	fresh := domain.NewSession()
	require.NoError(t, store.Create(old))
	require.NoError(t, store.Create(fresh))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.recordPath(old.ID), past, past))

	stale, err := store.Stale(time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{old.ID}, stale)
}

func TestFolderSessionStore_StaleTracksRecordActivity(t *testing.T) {
	store := newTestStore(t)
	session := domain.NewSession()
	require.NoError(t, store.Create(session))

	// a session can outlive its folder mtime: progress updates rewrite the
	// record without touching the directory
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Dir(session.ID), past, past))

	require.NoError(t, session.PlanDownload(1))
	require.NoError(t, session.FileCompleted())
	require.NoError(t, store.Write(session))

	stale, err := store.Stale(30 * time.Minute)
	require.NoError(t, err)

	assert.NotContains(t, stale, session.ID)
}

func TestFolderSessionStore_StaleWithoutRecord(t *testing.T) {
	store := newTestStore(t)

	// bare folder with no record, aged past the ttl
	dir := store.Dir("orphan")
	require.NoError(t, os.MkdirAll(dir, 0755))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(dir, past, past))

	stale, err := store.Stale(time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{"orphan"}, stale)
}

func TestFolderSessionStore_IsolatedFolders(t *testing.T) {
	store := newTestStore(t)
	a := domain.NewSession()
	b := domain.NewSession()
	require.NoError(t, store.Create(a))
	require.NoError(t, store.Create(b))

	require.NoError(t, store.Destroy(a.ID))

	// destroying one session leaves the other untouched
	got, err := store.Read(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}
