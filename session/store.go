package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Store is the durable home of the single bearer credential.
//
// Token never fails: it returns whatever is cached in memory, nil when the
// store is empty. Save writes through to durable storage; Clear is
// idempotent.
type Store interface {
	Token() *oauth2.Token
	Save(tok *oauth2.Token) error
	Clear() error
}

// storedToken is the on-disk layout: one JSON object holding the opaque
// bearer string and when it was acquired.
type storedToken struct {
	Token      string    `json:"token"`
	TokenType  string    `json:"token_type"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileStore keeps the credential in memory and mirrors it to a JSON file so
// it survives restarts.
type FileStore struct {
	path string

	mu  sync.RWMutex
	tok *oauth2.Token
}

// NewFileStore creates a FileStore backed by the file at path. An existing
// token file is loaded eagerly; a missing or unreadable file simply means
// the store starts empty.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil || st.Token == "" {
		return s
	}

	s.tok = &oauth2.Token{
		AccessToken: st.Token,
		TokenType:   st.TokenType,
	}
	return s
}

// Token returns the cached credential, nil when none is present.
func (s *FileStore) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

// Save caches tok in memory and persists it to disk, replacing any previous
// value. The in-memory credential is updated even when the disk write fails,
// so a live session is never lost to a storage hiccup.
func (s *FileStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()

	lock, err := acquireFileLock(s.path)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "failed to release lock: %v\n", releaseErr)
		}
	}()

	data, err := json.MarshalIndent(storedToken{
		Token:      tok.AccessToken,
		TokenType:  tok.TokenType,
		AcquiredAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first (atomic write pattern)
	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Clear drops the credential from memory and disk. Clearing an already-empty
// store is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	s.tok = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
