package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/validation"
	"github.com/fastygo/buyerleads/pkg/logger"
	"github.com/fastygo/buyerleads/repository"
	"github.com/fastygo/buyerleads/usecase/buyer"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrReportForbidden = domain.NewError(domain.ErrCodeForbidden, "You can only download your own import reports")

// BuyerService is the part of the buyer use case the transfer flows need.
type BuyerService interface {
	CreateMany(ctx context.Context, principal domain.Principal, rows []domain.BuyerFields) ([]*domain.Buyer, error)
	ListAll(ctx context.Context, principal domain.Principal, query buyer.ListQuery) ([]domain.Buyer, error)
}

// ImportFile is an uploaded document.
type ImportFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// ImportResult is returned for an accepted import.
type ImportResult struct {
	Success       bool              `json:"success"`
	ReportID      string            `json:"reportId,omitempty"`
	CreatedCount  int               `json:"createdCount"`
	ValidCount    int               `json:"validCount"`
	ErrorCount    int               `json:"errorCount"`
	Errors        []domain.RowError `json:"errors,omitempty"`
	CreatedBuyers []*domain.Buyer   `json:"createdBuyers"`
}

// Rejection is attached as details to the error of a rejected import.
type Rejection struct {
	ReportID   string            `json:"reportId,omitempty"`
	ValidCount int               `json:"validCount"`
	ErrorCount int               `json:"errorCount"`
	Errors     []domain.RowError `json:"errors,omitempty"`
}

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

type UseCase struct {
	buyers  BuyerService
	reports repository.ImportReportRepository
	now     func() time.Time
	logger  *zap.Logger
}

func New(buyers BuyerService, reports repository.ImportReportRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		buyers:  buyers,
		reports: reports,
		now:     time.Now,
		logger:  logger,
	}
}

// Import validates every row independently and creates the valid ones in one
// batch. Bad rows never abort the import; they are listed in the result. The
// import is refused as a whole when no row or too many rows validate.
func (uc *UseCase) Import(ctx context.Context, principal domain.Principal, file ImportFile) (*ImportResult, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	format, err := detectFormat(file.Name, file.ContentType)
	if err != nil {
		return nil, err
	}
	var table *Table
	switch format {
	case FormatXLSX:
		table, err = ParseXLSX(file.Body)
	default:
		table, err = ParseCSV(file.Body)
	}
	if err != nil {
		return nil, err
	}

	rowErrors := append([]domain.RowError(nil), table.Errors...)
	valid := make([]domain.BuyerFields, 0, len(table.Rows))
	for _, row := range table.Rows {
		fields, err := validation.ValidateRow(row.Cells)
		if err == nil {
			valid = append(valid, fields)
			continue
		}
		problems := domain.FieldErrors(err)
		if len(problems) == 0 {
			return nil, err
		}
		for _, p := range problems {
			rowErrors = append(rowErrors, domain.RowError{Row: row.Line, Field: p.Path, Message: p.Message, Data: row.Raw})
		}
	}
	sortRowErrors(rowErrors)

	report := &domain.ImportReport{
		ID:         uuid.NewString(),
		OwnerID:    principal.ID,
		FileName:   filepath.Base(file.Name),
		Format:     format,
		ValidCount: len(valid),
		ErrorCount: len(rowErrors),
		Errors:     rowErrors,
		CreatedAt:  uc.now().UTC(),
	}
	log := logger.FromContext(ctx, uc.logger).With(
		zap.String("report_id", report.ID),
		zap.Int("valid_rows", report.ValidCount),
		zap.Int("error_rows", report.ErrorCount))

	var reject *domain.Error
	switch {
	case len(valid) == 0:
		reject = buyer.ErrNoRows
	case len(valid) > buyer.MaxBatchRows:
		reject = buyer.ErrTooManyRows
	}
	if reject != nil {
		report.RejectReason = reject.Message
		uc.saveReport(ctx, report, log)
		log.Info("import rejected", zap.String("reason", reject.Message))
		return nil, reject.WithDetails(Rejection{
			ReportID:   report.ID,
			ValidCount: report.ValidCount,
			ErrorCount: report.ErrorCount,
			Errors:     rowErrors,
		})
	}

	created, err := uc.buyers.CreateMany(ctx, principal, valid)
	if err != nil {
		return nil, err
	}
	report.Accepted = true
	report.CreatedCount = len(created)
	uc.saveReport(ctx, report, log)
	log.Info("import completed", zap.Int("created", len(created)))

	return &ImportResult{
		Success:       true,
		ReportID:      report.ID,
		CreatedCount:  len(created),
		ValidCount:    report.ValidCount,
		ErrorCount:    report.ErrorCount,
		Errors:        rowErrors,
		CreatedBuyers: created,
	}, nil
}

// Export renders every buyer matching query, across all pages.
func (uc *UseCase) Export(ctx context.Context, principal domain.Principal, query buyer.ListQuery, format string) (*File, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, domain.NewValidationError([]domain.FieldError{{Path: "format", Message: "Expected one of: csv, xlsx"}})
	}

	buyers, err := uc.buyers.ListAll(ctx, principal, query)
	if err != nil {
		return nil, err
	}

	name := "buyers_export_" + uc.now().UTC().Format("2006-01-02") + "." + format
	var body []byte
	contentType := contentTypeCSV
	if format == FormatXLSX {
		body, err = WriteXLSX(buyers)
		contentType = contentTypeXLSX
	} else {
		body, err = WriteCSV(buyers)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "export failed", err)
	}

	logger.FromContext(ctx, uc.logger).Info("buyers exported",
		zap.Int("count", len(buyers)),
		zap.String("format", format))
	return &File{Name: name, ContentType: contentType, Body: body}, nil
}

// ReportErrorsCSV returns the failed rows of a stored import report.
func (uc *UseCase) ReportErrorsCSV(ctx context.Context, principal domain.Principal, reportID string) (*File, error) {
	if principal.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	report, err := uc.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.OwnerID != principal.ID && !principal.IsAdmin() {
		return nil, ErrReportForbidden
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"row", "field", "message", "data"})
	for _, e := range report.Errors {
		_ = w.Write([]string{strconv.Itoa(e.Row), e.Field, e.Message, csvLine(e.Data)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "report rendering failed", err)
	}
	return &File{
		Name:        "import_errors_" + report.ID + ".csv",
		ContentType: contentTypeCSV,
		Body:        buf.Bytes(),
	}, nil
}

// csvLine renders cells as one CSV record without the line break, so a cell
// holding a comma stays distinguishable from a cell boundary.
func csvLine(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(cells)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// saveReport is best effort: by the time it runs, the buyers are committed.
func (uc *UseCase) saveReport(ctx context.Context, report *domain.ImportReport, log *zap.Logger) {
	if uc.reports == nil {
		report.ID = ""
		return
	}
	if err := uc.reports.Save(ctx, report); err != nil {
		log.Error("failed to store import report", zap.Error(err))
		report.ID = ""
	}
}

func detectFormat(name, contentType string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "text/csv", "application/csv", "text/plain":
		return FormatCSV, nil
	case contentTypeXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnsupported
}
