package repository

import (
	"context"
	"time"

	"github.com/fastygo/buyerleads/domain"
)

// ImportReportRepository keeps the outcome of file imports for later download.
type ImportReportRepository interface {
	Save(ctx context.Context, report *domain.ImportReport) error
	Get(ctx context.Context, id string) (*domain.ImportReport, error)
	// Cleanup removes reports created before olderThan and returns how many.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)
	Size() (int, error)
}
