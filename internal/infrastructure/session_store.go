package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

const sessionRecordName = "info.json"

// FolderSessionStore keeps one folder per session under a temp root, with
// the session record serialized to info.json inside it. Intermediate
// download and merge files share the folder, so destroying a session is a
// single recursive remove. Sessions never share a file, so there is no
// cross-session contention.
type FolderSessionStore struct {
	root   string
	logger *zap.Logger
}

// NewFolderSessionStore creates a store rooted at the given directory,
// creating it if needed.
func NewFolderSessionStore(root string, logger *zap.Logger) (*FolderSessionStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session root: %w", err)
	}
	return &FolderSessionStore{root: root, logger: logger}, nil
}

// Dir returns the session's scratch directory.
func (s *FolderSessionStore) Dir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *FolderSessionStore) recordPath(sessionID string) string {
	return filepath.Join(s.Dir(sessionID), sessionRecordName)
}

// Create allocates the session folder and persists the initial record.
func (s *FolderSessionStore) Create(session *domain.Session) error {
	dir := s.Dir(session.ID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", domain.ErrSessionExists, session.ID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session folder: %w", err)
	}
	if err := s.Write(session); err != nil {
		// roll back the folder so a retry can recreate the session
		os.RemoveAll(dir)
		return err
	}
	s.logger.Debug("Session folder created",
		zap.String("session_id", session.ID),
		zap.String("dir", dir))
	return nil
}

// Read loads the session record, distinguishing a missing session from a
// present but unreadable record.
func (s *FolderSessionStore) Read(sessionID string) (*domain.Session, error) {
	data, err := os.ReadFile(s.recordPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionUnreadable, err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionUnreadable, err)
	}
	return &session, nil
}

// Write persists the session record. The record is staged in a temp file
// and renamed into place so a concurrent Read never observes a partially
// written record.
func (s *FolderSessionStore) Write(session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSessionUnwritable, err)
	}
	tmp, err := os.CreateTemp(s.Dir(session.ID), sessionRecordName+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSessionUnwritable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrSessionUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrSessionUnwritable, err)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(session.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", domain.ErrSessionUnwritable, err)
	}
	return nil
}

// Destroy removes the session folder and everything in it. Missing folders
// are ignored so cleanup can run from multiple paths.
func (s *FolderSessionStore) Destroy(sessionID string) error {
	dir := s.Dir(sessionID)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("Failed to remove session folder",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return err
	}
	s.logger.Debug("Session folder removed", zap.String("session_id", sessionID))
	return nil
}

// Exists reports whether the session folder is present.
func (s *FolderSessionStore) Exists(sessionID string) bool {
	_, err := os.Stat(s.Dir(sessionID))
	return err == nil
}

// Stale returns the IDs of sessions whose last activity is older than ttl.
// Used by the janitor to reap abandoned sessions. Activity is judged by the
// record's mtime, which every Write refreshes; the folder's own mtime does
// not change when the record is rewritten, so a long-running pipeline would
// otherwise look abandoned.
func (s *FolderSessionStore) Stale(ttl time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list session root: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	var stale []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		modTime, ok := s.lastActivity(entry)
		if !ok {
			continue
		}
		if modTime.Before(cutoff) {
			stale = append(stale, entry.Name())
		}
	}
	return stale, nil
}

func (s *FolderSessionStore) lastActivity(entry os.DirEntry) (time.Time, bool) {
	if info, err := os.Stat(s.recordPath(entry.Name())); err == nil {
		return info.ModTime(), true
	}
	// no record yet, or it was removed; fall back to the folder itself
	info, err := entry.Info()
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
