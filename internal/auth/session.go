// Package auth owns the operator session: the bearer token obtained at
// login, where it is persisted, and when it stops being usable.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file readable only by the
// current user.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (f *FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Session is the single holder of the operator's bearer token. It is created
// once at start-up and handed to every component that makes authenticated
// calls; nothing else reads or writes the token store.
type Session struct {
	mu    sync.RWMutex
	token string
	store TokenStore
	log   logrus.FieldLogger
	now   func() time.Time

	hookMu  sync.Mutex
	onClear []func()
}

// NewSession loads any persisted token from store.
func NewSession(store TokenStore, log logrus.FieldLogger) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	s := &Session{
		token: token,
		store: store,
		log:   log,
		now:   time.Now,
	}
	if token != "" {
		log.WithField("token", describe(token)).Info("restored session")
	}
	return s, nil
}

// Token returns the current bearer token. An expired token is cleared and
// reported as absent.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", false
	}
	if Expired(token, s.now()) {
		s.log.Info("session token expired")
		if err := s.Clear(); err != nil {
			s.log.WithError(err).Warn("failed to clear expired session")
		}
		return "", false
	}
	return token, true
}

// Authenticated reports whether a usable token is held.
func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Start stores the token returned by a successful login.
func (s *Session) Start(token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.store.Save(token)
}

// OnClear registers fn to run every time the session ends, whatever ended
// it: logout, a failed fetch or an expired token. Views holding session
// state register their teardown here.
func (s *Session) OnClear(fn func()) {
	s.hookMu.Lock()
	s.onClear = append(s.onClear, fn)
	s.hookMu.Unlock()
}

// Clear ends the session locally and runs the OnClear hooks. Hooks run
// without any session lock held.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	err := s.store.Clear()

	s.hookMu.Lock()
	hooks := append([]func(){}, s.onClear...)
	s.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return err
}

// SetClock replaces the time source. Tests only.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}
