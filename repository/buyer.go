package repository

import (
	"context"

	"github.com/fastygo/buyerleads/domain"
)

// BuyerSort names the columns a buyer list can be ordered by.
type BuyerSort string

const (
	SortUpdatedAt BuyerSort = "updatedAt"
	SortCreatedAt BuyerSort = "createdAt"
	SortFullName  BuyerSort = "fullName"
)

type BuyerFilter struct {
	Search       string
	City         domain.City
	PropertyType domain.PropertyType
	Status       domain.Status
	Timeline     domain.Timeline
	OwnerID      string
	SortBy       BuyerSort
	Descending   bool
	Limit        int
	Offset       int
}

// UpdateFunc receives the locked current row and returns the row to write plus
// an optional history entry. Returning an error aborts the transaction.
type UpdateFunc func(current *domain.Buyer) (*domain.Buyer, *domain.HistoryEntry, error)

// AuthorizeFunc vetoes a delete after the row has been locked.
type AuthorizeFunc func(current *domain.Buyer) error

type BuyerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Buyer, error)
	List(ctx context.Context, filter BuyerFilter) ([]domain.Buyer, int, error)
	// Create stores the buyer and its creation entry atomically.
	Create(ctx context.Context, buyer *domain.Buyer, entry *domain.HistoryEntry) error
	// CreateMany stores every buyer and entry, or none of them.
	CreateMany(ctx context.Context, buyers []*domain.Buyer, entries []*domain.HistoryEntry) error
	// Update applies fn under a row lock. The write only lands if updated_at
	// still holds the value fn saw, otherwise domain.ErrStaleBuyer is returned.
	Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Buyer, error)
	// Delete removes the buyer and, through the foreign key, its history.
	Delete(ctx context.Context, id string, authorize AuthorizeFunc) error
}
