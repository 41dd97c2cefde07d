package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository returns a Postgres-backed HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) repository.HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]domain.HistoryEntry, error) {
	const query = `
	SELECT h.id::text, h.buyer_id::text, h.changed_by, COALESCE(NULLIF(u.name, ''), u.email, ''), h.changed_at, h.diff
	FROM buyer_history h
	LEFT JOIN users u ON u.id = h.changed_by
	WHERE h.buyer_id = $1
	ORDER BY h.changed_at DESC
	LIMIT $2
	`
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.pool.Query(ctx, query, buyerID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			entry     domain.HistoryEntry
			changedAt time.Time
			diff      []byte
		)
		if err := rows.Scan(&entry.ID, &entry.BuyerID, &entry.ChangedBy, &entry.ChangedByName, &changedAt, &diff); err != nil {
			return nil, storeError(err)
		}
		entry.ChangedAt = domain.NewTimestamp(changedAt)
		if err := json.Unmarshal(diff, &entry.Diff); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, storeError(rows.Err())
}
