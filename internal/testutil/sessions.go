package testutil

import (
	"context"
	"sync"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

// Sessions is an in-memory repository.SessionRepository.
type Sessions struct {
	mu   sync.Mutex
	data map[string]domain.Session
}

var _ repository.SessionRepository = (*Sessions)(nil)

func NewSessions() *Sessions {
	return &Sessions{data: make(map[string]domain.Session)}
}

func (s *Sessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Sessions) Save(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.ID] = *session
	return nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}
