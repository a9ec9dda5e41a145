package snapshot

import (
	"context"
	"sync"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
)

// Memory is an in-memory snapshot store with the same wholesale read/write
// semantics as FileStore. Used by tests and as a throwaway backend when no
// data directory is configured.
type Memory struct {
	mu            sync.Mutex
	clients       []domain.Client
	users         []domain.User
	refreshTokens []domain.RefreshToken
	accessLog     []domain.AccessEvent
	shareLog      []domain.ShareEvent

	// FailSaves makes every write return a persistence error, for tests
	// exercising the failure path.
	FailSaves bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) saveErr(collection string) error {
	if s.FailSaves {
		return &domain.ErrPersistence{Collection: collection, Err: errQuota}
	}
	return nil
}

var errQuota = &quotaError{}

type quotaError struct{}

func (*quotaError) Error() string { return "storage quota exceeded" }

func (s *Memory) Load(ctx context.Context) ([]domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Client(nil), s.clients...), nil
}

func (s *Memory) Save(ctx context.Context, clients []domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionClients); err != nil {
		return err
	}
	s.clients = append([]domain.Client(nil), clients...)
	return nil
}

func (s *Memory) LoadUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.User(nil), s.users...), nil
}

func (s *Memory) SaveUsers(ctx context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionUsers); err != nil {
		return err
	}
	s.users = append([]domain.User(nil), users...)
	return nil
}

func (s *Memory) LoadRefreshTokens(ctx context.Context) ([]domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RefreshToken(nil), s.refreshTokens...), nil
}

func (s *Memory) SaveRefreshTokens(ctx context.Context, tokens []domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionRefreshTokens); err != nil {
		return err
	}
	s.refreshTokens = append([]domain.RefreshToken(nil), tokens...)
	return nil
}

func (s *Memory) AppendAccessEvent(ctx context.Context, ev domain.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionAccessLog); err != nil {
		return err
	}
	s.accessLog = append(s.accessLog, ev)
	return nil
}

func (s *Memory) LoadAccessLog(ctx context.Context) ([]domain.AccessEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AccessEvent(nil), s.accessLog...), nil
}

func (s *Memory) AppendShareEvent(ctx context.Context, ev domain.ShareEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionShareLog); err != nil {
		return err
	}
	s.shareLog = append(s.shareLog, ev)
	return nil
}

func (s *Memory) LoadShareLog(ctx context.Context) ([]domain.ShareEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ShareEvent(nil), s.shareLog...), nil
}

func (s *Memory) ReplaceAccessLog(ctx context.Context, log []domain.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionAccessLog); err != nil {
		return err
	}
	s.accessLog = append([]domain.AccessEvent(nil), log...)
	return nil
}

func (s *Memory) ReplaceShareLog(ctx context.Context, log []domain.ShareEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr(collectionShareLog); err != nil {
		return err
	}
	s.shareLog = append([]domain.ShareEvent(nil), log...)
	return nil
}
