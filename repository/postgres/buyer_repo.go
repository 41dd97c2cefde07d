package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

const selectBuyer = `
	SELECT b.id::text, b.full_name, b.email, b.phone, b.city, b.property_type, b.bhk, b.purpose,
		b.budget_min, b.budget_max, b.timeline, b.source, b.status, b.notes, b.tags,
		b.owner_id, COALESCE(NULLIF(u.name, ''), u.email, ''), b.created_at, b.updated_at
	FROM buyers b
	LEFT JOIN users u ON u.id = b.owner_id
	`

const buyerFilterClause = `
	WHERE ($1 = '' OR b.full_name ILIKE $1 OR b.phone ILIKE $1 OR b.email ILIKE $1)
	  AND ($2 = '' OR b.city = $2)
	  AND ($3 = '' OR b.property_type = $3)
	  AND ($4 = '' OR b.status = $4)
	  AND ($5 = '' OR b.timeline = $5)
	  AND ($6 = '' OR b.owner_id = $6)
	`

const insertBuyer = `
	INSERT INTO buyers (id, full_name, email, phone, city, property_type, bhk, purpose,
		budget_min, budget_max, timeline, source, status, notes, tags, owner_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

const insertHistory = `
	INSERT INTO buyer_history (id, buyer_id, changed_by, changed_at, diff)
	VALUES ($1, $2, $3, $4, $5)
	`

var sortColumns = map[repository.BuyerSort]string{
	repository.SortUpdatedAt: "b.updated_at",
	repository.SortCreatedAt: "b.created_at",
	repository.SortFullName:  "b.full_name",
}

type buyerRepository struct {
	pool *pgxpool.Pool
}

// NewBuyerRepository returns a Postgres-backed implementation of BuyerRepository.
func NewBuyerRepository(pool *pgxpool.Pool) repository.BuyerRepository {
	return &buyerRepository{pool: pool}
}

func (r *buyerRepository) GetByID(ctx context.Context, id string) (*domain.Buyer, error) {
	row := r.pool.QueryRow(ctx, selectBuyer+`WHERE b.id = $1`, id)
	buyer, err := scanBuyer(row)
	return buyer, storeError(err)
}

func (r *buyerRepository) List(ctx context.Context, filter repository.BuyerFilter) ([]domain.Buyer, int, error) {
	args := []interface{}{
		containsPattern(filter.Search),
		string(filter.City),
		string(filter.PropertyType),
		string(filter.Status),
		string(filter.Timeline),
		filter.OwnerID,
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM buyers b`+buyerFilterClause, args...).Scan(&total); err != nil {
		return nil, 0, storeError(err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[repository.SortUpdatedAt]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	query := selectBuyer + buyerFilterClause +
		fmt.Sprintf("ORDER BY %s %s, b.id %s LIMIT $7 OFFSET $8", column, direction, direction)

	rows, err := r.pool.Query(ctx, query, append(args, clampLimit(filter.Limit), max(filter.Offset, 0))...)
	if err != nil {
		return nil, 0, storeError(err)
	}
	defer rows.Close()

	buyers := make([]domain.Buyer, 0, clampLimit(filter.Limit))
	for rows.Next() {
		buyer, err := scanBuyer(rows)
		if err != nil {
			return nil, 0, storeError(err)
		}
		buyers = append(buyers, *buyer)
	}
	return buyers, total, storeError(rows.Err())
}

func (r *buyerRepository) Create(ctx context.Context, buyer *domain.Buyer, entry *domain.HistoryEntry) error {
	if buyer == nil || entry == nil {
		return domain.ErrInvalidPayload
	}
	buyerArgs, err := insertBuyerArgs(buyer)
	if err != nil {
		return err
	}
	historyArgs, err := insertHistoryArgs(entry)
	if err != nil {
		return err
	}

	return storeError(pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertBuyer, buyerArgs...); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertHistory, historyArgs...)
		return err
	}))
}

func (r *buyerRepository) CreateMany(ctx context.Context, buyers []*domain.Buyer, entries []*domain.HistoryEntry) error {
	if len(buyers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, buyer := range buyers {
		args, err := insertBuyerArgs(buyer)
		if err != nil {
			return err
		}
		batch.Queue(insertBuyer, args...)
	}
	for _, entry := range entries {
		args, err := insertHistoryArgs(entry)
		if err != nil {
			return err
		}
		batch.Queue(insertHistory, args...)
	}

	return storeError(pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	}))
}

func (r *buyerRepository) Update(ctx context.Context, id string, fn repository.UpdateFunc) (*domain.Buyer, error) {
	const query = `
	UPDATE buyers
	SET full_name = $3,
		email = $4,
		phone = $5,
		city = $6,
		property_type = $7,
		bhk = $8,
		purpose = $9,
		budget_min = $10,
		budget_max = $11,
		timeline = $12,
		source = $13,
		status = $14,
		notes = $15,
		tags = $16,
		updated_at = $17
	WHERE id = $1 AND updated_at = $2
	`

	var updated *domain.Buyer
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanBuyer(tx.QueryRow(ctx, selectBuyer+`WHERE b.id = $1 FOR UPDATE OF b`, id))
		if err != nil {
			return err
		}

		next, entry, err := fn(current.Clone())
		if err != nil {
			return err
		}

		tags, err := marshalJSON(nonNilTags(next.Tags))
		if err != nil {
			return err
		}
		f := next.BuyerFields
		tag, err := tx.Exec(ctx, query,
			id,
			current.UpdatedAt.Time,
			f.FullName,
			f.Email,
			f.Phone,
			string(f.City),
			string(f.PropertyType),
			stringPtr(f.BHK),
			string(f.Purpose),
			f.BudgetMin,
			f.BudgetMax,
			string(f.Timeline),
			string(f.Source),
			string(f.Status),
			f.Notes,
			tags,
			next.UpdatedAt.Time,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrStaleBuyer
		}

		if entry != nil {
			args, err := insertHistoryArgs(entry)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, insertHistory, args...); err != nil {
				return err
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

func (r *buyerRepository) Delete(ctx context.Context, id string, authorize repository.AuthorizeFunc) error {
	return storeError(pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanBuyer(tx.QueryRow(ctx, selectBuyer+`WHERE b.id = $1 FOR UPDATE OF b`, id))
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(current); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM buyers WHERE id = $1`, id)
		return err
	}))
}

func insertBuyerArgs(b *domain.Buyer) ([]interface{}, error) {
	tags, err := marshalJSON(nonNilTags(b.Tags))
	if err != nil {
		return nil, err
	}
	return []interface{}{
		b.ID,
		b.FullName,
		b.Email,
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		stringPtr(b.BHK),
		string(b.Purpose),
		b.BudgetMin,
		b.BudgetMax,
		string(b.Timeline),
		string(b.Source),
		string(b.Status),
		b.Notes,
		tags,
		b.OwnerID,
		b.CreatedAt.Time,
		b.UpdatedAt.Time,
	}, nil
}

func insertHistoryArgs(e *domain.HistoryEntry) ([]interface{}, error) {
	diff, err := marshalJSON(e.Diff)
	if err != nil {
		return nil, err
	}
	return []interface{}{e.ID, e.BuyerID, e.ChangedBy, e.ChangedAt.Time, diff}, nil
}

func scanBuyer(row rowScanner) (*domain.Buyer, error) {
	var (
		b                    domain.Buyer
		city, propertyType   string
		purpose, timeline    string
		source, status       string
		bhk                  *string
		tags                 []byte
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(
		&b.ID,
		&b.FullName,
		&b.Email,
		&b.Phone,
		&city,
		&propertyType,
		&bhk,
		&purpose,
		&b.BudgetMin,
		&b.BudgetMax,
		&timeline,
		&source,
		&status,
		&b.Notes,
		&tags,
		&b.OwnerID,
		&b.OwnerName,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBuyerNotFound
		}
		return nil, err
	}

	b.City = domain.City(city)
	b.PropertyType = domain.PropertyType(propertyType)
	b.Purpose = domain.Purpose(purpose)
	b.Timeline = domain.Timeline(timeline)
	b.Source = domain.Source(source)
	b.Status = domain.Status(status)
	if bhk != nil {
		v := domain.BHK(*bhk)
		b.BHK = &v
	}
	b.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &b.Tags); err != nil {
			return nil, err
		}
	}
	b.CreatedAt = domain.NewTimestamp(createdAt)
	b.UpdatedAt = domain.NewTimestamp(updatedAt)
	return &b, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
