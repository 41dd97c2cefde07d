package repository

import (
	"context"

	"github.com/fastygo/buyerleads/domain"
)

type HistoryRepository interface {
	// ListByBuyer returns the newest entries first.
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]domain.HistoryEntry, error)
}
