package buyer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/validation"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository"
)

const (
	PageSize     = 10
	MaxBatchRows = 200

	exportBatch = 200
)

var (
	ErrNoRows      = domain.NewError(domain.ErrCodeInvalid, "No valid data found")
	ErrTooManyRows = domain.NewError(domain.ErrCodeInvalid, "Maximum 200 rows allowed")
)

// Options tune visibility and history paging.
type Options struct {
	// OwnerScoped hides other agents' leads from non-admin principals.
	OwnerScoped     bool
	HistoryLimit    int
	MaxHistoryLimit int
}

// Page is one page of the buyer list.
type Page struct {
	Buyers      []domain.Buyer `json:"buyers"`
	TotalCount  int            `json:"totalCount"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	PageSize    int            `json:"pageSize"`
}

type UseCase struct {
	buyers  repository.BuyerRepository
	history repository.HistoryRepository
	opts    Options
	now     func() time.Time
	logger  *zap.Logger
}

func New(buyers repository.BuyerRepository, history repository.HistoryRepository, opts Options, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.MaxHistoryLimit < opts.HistoryLimit {
		opts.MaxHistoryLimit = opts.HistoryLimit
	}
	return &UseCase{
		buyers:  buyers,
		history: history,
		opts:    opts,
		now:     time.Now,
		logger:  logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, principal domain.Principal, fields domain.BuyerFields) (*domain.Buyer, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	fields, err := validation.Validate(fields)
	if err != nil {
		return nil, err
	}

	buyer := uc.newBuyer(principal, fields, domain.NewTimestamp(uc.now()))
	entry := newEntry(buyer, principal, domain.ActionCreated)
	if err := uc.buyers.Create(ctx, buyer, entry); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("buyer created", zap.String("buyer_id", buyer.ID))
	return buyer, nil
}

// CreateMany stores the rows in one transaction: either every buyer and its
// history entry lands, or none does.
func (uc *UseCase) CreateMany(ctx context.Context, principal domain.Principal, rows []domain.BuyerFields) ([]*domain.Buyer, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	switch {
	case len(rows) == 0:
		return nil, ErrNoRows
	case len(rows) > MaxBatchRows:
		return nil, ErrTooManyRows
	}

	now := domain.NewTimestamp(uc.now())
	buyers := make([]*domain.Buyer, 0, len(rows))
	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		fields, err := validation.Validate(row)
		if err != nil {
			return nil, err
		}
		buyer := uc.newBuyer(principal, fields, now)
		buyers = append(buyers, buyer)
		entries = append(entries, newEntry(buyer, principal, domain.ActionCreatedFromCSV))
	}

	if err := uc.buyers.CreateMany(ctx, buyers, entries); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("buyers imported", zap.Int("count", len(buyers)))
	return buyers, nil
}

func (uc *UseCase) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Buyer, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrBuyerNotFound
	}
	buyer, err := uc.buyers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !uc.visible(principal, buyer) {
		return nil, domain.ErrBuyerNotFound
	}
	return buyer, nil
}

func (uc *UseCase) List(ctx context.Context, principal domain.Principal, query ListQuery) (*Page, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	if query.Page < 1 {
		query.Page = 1
	}

	filter := query.filter(uc.scope(principal, query.Mine))
	filter.Limit = PageSize
	filter.Offset = (query.Page - 1) * PageSize

	buyers, total, err := uc.buyers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{
		Buyers:      buyers,
		TotalCount:  total,
		TotalPages:  (total + PageSize - 1) / PageSize,
		CurrentPage: query.Page,
		PageSize:    PageSize,
	}, nil
}

// ListAll returns every buyer matching the query, ignoring its page.
func (uc *UseCase) ListAll(ctx context.Context, principal domain.Principal, query ListQuery) ([]domain.Buyer, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	filter := query.filter(uc.scope(principal, query.Mine))
	filter.Limit = exportBatch

	var all []domain.Buyer
	for {
		page, total, err := uc.buyers.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportBatch || len(all) >= total {
			return all, nil
		}
		filter.Offset += exportBatch
	}
}

// Update applies patch if expected still matches the stored updatedAt. The
// checks run in a fixed order: existence, freshness, ownership, validity.
func (uc *UseCase) Update(ctx context.Context, principal domain.Principal, id string, patch validation.Input, expected *domain.Timestamp) (*domain.Buyer, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrBuyerNotFound
	}

	var changed int
	updated, err := uc.buyers.Update(ctx, id, func(current *domain.Buyer) (*domain.Buyer, *domain.HistoryEntry, error) {
		if !uc.visible(principal, current) {
			return nil, nil, domain.ErrBuyerNotFound
		}
		if expected == nil || !current.UpdatedAt.Equal(*expected) {
			return nil, nil, domain.ErrStaleBuyer
		}
		if !principal.CanModify(current) {
			return nil, nil, domain.ErrEditForbidden
		}

		fields, err := validation.ApplyPatch(current.BuyerFields, patch)
		if err != nil {
			return nil, nil, err
		}

		next := current.Clone()
		next.BuyerFields = fields
		next.UpdatedAt = current.UpdatedAt.Next(uc.now())

		changes := Diff(current.BuyerFields, next.BuyerFields)
		changed = len(changes)
		if changed == 0 {
			return next, nil, nil
		}
		return next, &domain.HistoryEntry{
			ID:        uuid.NewString(),
			BuyerID:   current.ID,
			ChangedBy: principal.ID,
			ChangedAt: next.UpdatedAt,
			Diff:      domain.HistoryDiff{Action: domain.ActionUpdated, Changes: changes},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("buyer updated",
		zap.String("buyer_id", id),
		zap.Int("changed_fields", changed))
	return updated, nil
}

func (uc *UseCase) Delete(ctx context.Context, principal domain.Principal, id string) error {
	if principal.IsZero() {
		return domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrBuyerNotFound
	}

	err := uc.buyers.Delete(ctx, id, func(current *domain.Buyer) error {
		if !uc.visible(principal, current) {
			return domain.ErrBuyerNotFound
		}
		if !principal.CanModify(current) {
			return domain.ErrDeleteForbidden
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, uc.logger).Info("buyer deleted", zap.String("buyer_id", id))
	return nil
}

// History returns the latest entries of a buyer, newest first. A limit of
// zero selects the configured default.
func (uc *UseCase) History(ctx context.Context, principal domain.Principal, buyerID string, limit int) ([]domain.HistoryEntry, error) {
	if _, err := uc.Get(ctx, principal, buyerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = uc.opts.HistoryLimit
	}
	if limit > uc.opts.MaxHistoryLimit {
		limit = uc.opts.MaxHistoryLimit
	}
	return uc.history.ListByBuyer(ctx, buyerID, limit)
}

func (uc *UseCase) newBuyer(principal domain.Principal, fields domain.BuyerFields, now domain.Timestamp) *domain.Buyer {
	if fields.Status == "" {
		fields.Status = domain.StatusNew
	}
	if fields.Tags == nil {
		fields.Tags = []string{}
	}
	return &domain.Buyer{
		ID:          uuid.NewString(),
		BuyerFields: fields,
		OwnerID:     principal.ID,
		OwnerName:   principal.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newEntry(buyer *domain.Buyer, principal domain.Principal, action domain.HistoryAction) *domain.HistoryEntry {
	snapshot := buyer.Clone()
	snapshot.OwnerName = ""
	return &domain.HistoryEntry{
		ID:        uuid.NewString(),
		BuyerID:   buyer.ID,
		ChangedBy: principal.ID,
		ChangedAt: buyer.CreatedAt,
		Diff:      domain.HistoryDiff{Action: action, Data: snapshot},
	}
}

func (uc *UseCase) scope(principal domain.Principal, mine bool) string {
	if mine || (uc.opts.OwnerScoped && !principal.IsAdmin()) {
		return principal.ID
	}
	return ""
}

func (uc *UseCase) visible(principal domain.Principal, buyer *domain.Buyer) bool {
	if !uc.opts.OwnerScoped || principal.IsAdmin() {
		return true
	}
	return buyer.OwnerID == principal.ID
}
