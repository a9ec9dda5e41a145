// Package snapshot persists each collection as one JSON document under a
// data directory. A collection is always read and rewritten as a whole, so
// the later of two concurrent saves wins unconditionally — the same
// last-write-wins contract the rest of the system is written against.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vbarros/obraprime-crm-go/internal/domain"

	"go.uber.org/zap"
)

// Fixed collection names; each maps to <dir>/<name>.json.
const (
	collectionClients       = "clients"
	collectionUsers         = "users"
	collectionRefreshTokens = "refresh_tokens"
	collectionAccessLog     = "access_logs"
	collectionShareLog      = "share_logs"
)

// FileStore is the file-backed snapshot store.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStore creates the data directory if needed and returns the store.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// load decodes <dir>/<name>.json into out. A missing file is an empty
// collection, not an error.
func (s *FileStore) load(name string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(name, out)
}

func (s *FileStore) loadLocked(name string, out any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &domain.ErrPersistence{Collection: name, Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ErrPersistence{Collection: name, Err: err}
	}
	return nil
}

// save rewrites the collection wholesale. The write goes to a temp file
// first and is renamed into place, so a failed write never corrupts the
// previous snapshot.
func (s *FileStore) save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(name, v)
}

func (s *FileStore) saveLocked(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &domain.ErrPersistence{Collection: name, Err: err}
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("snapshot: write failed",
			zap.String("collection", name),
			zap.Error(err),
		)
		return &domain.ErrPersistence{Collection: name, Err: err}
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		s.logger.Error("snapshot: rename failed",
			zap.String("collection", name),
			zap.Error(err),
		)
		return &domain.ErrPersistence{Collection: name, Err: err}
	}

	s.logger.Debug("snapshot: saved",
		zap.String("collection", name),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// --- ClientStore ---

func (s *FileStore) Load(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	if err := s.load(collectionClients, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *FileStore) Save(ctx context.Context, clients []domain.Client) error {
	if clients == nil {
		clients = []domain.Client{}
	}
	return s.save(collectionClients, clients)
}

// --- UserStore ---

func (s *FileStore) LoadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.load(collectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) SaveUsers(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	return s.save(collectionUsers, users)
}

func (s *FileStore) LoadRefreshTokens(ctx context.Context) ([]domain.RefreshToken, error) {
	var tokens []domain.RefreshToken
	if err := s.load(collectionRefreshTokens, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *FileStore) SaveRefreshTokens(ctx context.Context, tokens []domain.RefreshToken) error {
	if tokens == nil {
		tokens = []domain.RefreshToken{}
	}
	return s.save(collectionRefreshTokens, tokens)
}

// --- LogStore ---

// AppendAccessEvent holds the lock across the read-modify-write so two
// concurrent appends never drop an event.
func (s *FileStore) AppendAccessEvent(ctx context.Context, ev domain.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var log []domain.AccessEvent
	if err := s.loadLocked(collectionAccessLog, &log); err != nil {
		return err
	}
	return s.saveLocked(collectionAccessLog, append(log, ev))
}

func (s *FileStore) LoadAccessLog(ctx context.Context) ([]domain.AccessEvent, error) {
	var log []domain.AccessEvent
	if err := s.load(collectionAccessLog, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *FileStore) AppendShareEvent(ctx context.Context, ev domain.ShareEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var log []domain.ShareEvent
	if err := s.loadLocked(collectionShareLog, &log); err != nil {
		return err
	}
	return s.saveLocked(collectionShareLog, append(log, ev))
}

func (s *FileStore) LoadShareLog(ctx context.Context) ([]domain.ShareEvent, error) {
	var log []domain.ShareEvent
	if err := s.load(collectionShareLog, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *FileStore) ReplaceAccessLog(ctx context.Context, log []domain.AccessEvent) error {
	if log == nil {
		log = []domain.AccessEvent{}
	}
	return s.save(collectionAccessLog, log)
}

func (s *FileStore) ReplaceShareLog(ctx context.Context, log []domain.ShareEvent) error {
	if log == nil {
		log = []domain.ShareEvent{}
	}
	return s.save(collectionShareLog, log)
}
