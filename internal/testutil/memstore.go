// Package testutil holds in-memory repository fakes for unit tests. Nothing in
// the server wires these in.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

// ErrInjected is returned when a test asks the store to fail.
var ErrInjected = errors.New("injected store failure")

// Store is a mutex-guarded fake of the buyer, history and user repositories.
// Every method behaves as one transaction.
type Store struct {
	mu      sync.Mutex
	buyers  map[string]*domain.Buyer
	history []domain.HistoryEntry
	users   map[string]*domain.User

	// FailCreateManyAt makes CreateMany fail on the n-th buyer (1-based).
	FailCreateManyAt int
	// FailAll, when set, is returned by every call.
	FailAll error
}

func NewStore() *Store {
	return &Store{
		buyers: make(map[string]*domain.Buyer),
		users:  make(map[string]*domain.User),
	}
}

var (
	_ repository.BuyerRepository   = (*Store)(nil)
	_ repository.HistoryRepository = (*Store)(nil)
	_ repository.UserRepository    = userView{}
)

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Buyer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	b, ok := s.buyers[id]
	if !ok {
		return nil, domain.ErrBuyerNotFound
	}
	return s.withOwner(b), nil
}

func (s *Store) List(ctx context.Context, filter repository.BuyerFilter) ([]domain.Buyer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return nil, 0, s.FailAll
	}

	var matched []domain.Buyer
	for _, b := range s.buyers {
		if matches(b, filter) {
			matched = append(matched, *s.withOwner(b))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if filter.Descending {
			return lessBy(filter.SortBy, &matched[j], &matched[i])
		}
		return lessBy(filter.SortBy, &matched[i], &matched[j])
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *Store) Create(ctx context.Context, buyer *domain.Buyer, entry *domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return s.FailAll
	}
	s.buyers[buyer.ID] = buyer.Clone()
	s.history = append(s.history, *entry)
	return nil
}

func (s *Store) CreateMany(ctx context.Context, buyers []*domain.Buyer, entries []*domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return s.FailAll
	}

	staged := make(map[string]*domain.Buyer, len(buyers))
	for i, b := range buyers {
		if s.FailCreateManyAt > 0 && i+1 == s.FailCreateManyAt {
			return ErrInjected
		}
		staged[b.ID] = b.Clone()
	}
	for id, b := range staged {
		s.buyers[id] = b
	}
	for _, e := range entries {
		s.history = append(s.history, *e)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, fn repository.UpdateFunc) (*domain.Buyer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return nil, s.FailAll
	}

	current, ok := s.buyers[id]
	if !ok {
		return nil, domain.ErrBuyerNotFound
	}
	next, entry, err := fn(s.withOwner(current))
	if err != nil {
		return nil, err
	}
	s.buyers[id] = next.Clone()
	if entry != nil {
		s.history = append(s.history, *entry)
	}
	return next, nil
}

func (s *Store) Delete(ctx context.Context, id string, authorize repository.AuthorizeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return s.FailAll
	}

	current, ok := s.buyers[id]
	if !ok {
		return domain.ErrBuyerNotFound
	}
	if authorize != nil {
		if err := authorize(s.withOwner(current)); err != nil {
			return err
		}
	}
	delete(s.buyers, id)

	kept := s.history[:0]
	for _, e := range s.history {
		if e.BuyerID != id {
			kept = append(kept, e)
		}
	}
	s.history = kept
	return nil
}

func (s *Store) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll != nil {
		return nil, s.FailAll
	}

	var out []domain.HistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		e := s.history[i]
		if e.BuyerID != buyerID {
			continue
		}
		if u, ok := s.users[e.ChangedBy]; ok {
			e.ChangedByName = u.DisplayName()
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt.Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// HistoryCount reports how many entries exist for a buyer.
func (s *Store) HistoryCount(buyerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.history {
		if e.BuyerID == buyerID {
			n++
		}
	}
	return n
}

// BuyerCount reports how many buyers are stored.
func (s *Store) BuyerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buyers)
}

// Users exposes the user side of the store. GetByID on Store itself is the
// buyer lookup.
func (s *Store) Users() repository.UserRepository {
	return userView{s}
}

type userView struct{ s *Store }

func (v userView) GetByID(ctx context.Context, id string) (*domain.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (v userView) Upsert(ctx context.Context, user *domain.User) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if existing, ok := v.s.users[user.ID]; ok && user.Name == "" {
		user.Name = existing.Name
	}
	copied := *user
	v.s.users[user.ID] = &copied
	return nil
}

func (s *Store) withOwner(b *domain.Buyer) *domain.Buyer {
	out := b.Clone()
	if u, ok := s.users[b.OwnerID]; ok {
		out.OwnerName = u.DisplayName()
	}
	return out
}

func matches(b *domain.Buyer, f repository.BuyerFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		email := ""
		if b.Email != nil {
			email = *b.Email
		}
		if !strings.Contains(strings.ToLower(b.FullName), needle) &&
			!strings.Contains(strings.ToLower(b.Phone), needle) &&
			!strings.Contains(strings.ToLower(email), needle) {
			return false
		}
	}
	return (f.City == "" || b.City == f.City) &&
		(f.PropertyType == "" || b.PropertyType == f.PropertyType) &&
		(f.Status == "" || b.Status == f.Status) &&
		(f.Timeline == "" || b.Timeline == f.Timeline) &&
		(f.OwnerID == "" || b.OwnerID == f.OwnerID)
}

func lessBy(sortBy repository.BuyerSort, a, b *domain.Buyer) bool {
	switch sortBy {
	case repository.SortFullName:
		if a.FullName != b.FullName {
			return a.FullName < b.FullName
		}
	case repository.SortCreatedAt:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt.Time)
		}
	default:
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt.Time)
		}
	}
	return a.ID < b.ID
}
