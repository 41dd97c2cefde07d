package transfer

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fastygo/buyerleads/domain"
)

const exportSheet = "Buyers"

// Columns is the fixed column order of exported files.
var Columns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "notes", "tags", "status",
	"createdAt", "updatedAt",
}

// WriteCSV renders buyers with a header row. Fields holding a comma, quote,
// line break or leading space are quoted with inner quotes doubled; absent
// values are empty.
func WriteCSV(buyers []domain.Buyer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for i := range buyers {
		if err := w.Write(record(&buyers[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders the same grid as WriteCSV into a workbook. Budgets are
// stored as numbers.
func WriteXLSX(buyers []domain.Buyer) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i := range buyers {
		cells := record(&buyers[i])
		row := make([]interface{}, len(cells))
		for j, cell := range cells {
			row[j] = cell
		}
		if b := buyers[i].BudgetMin; b != nil {
			row[7] = *b
		}
		if b := buyers[i].BudgetMax; b != nil {
			row[8] = *b
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func record(b *domain.Buyer) []string {
	return []string{
		b.FullName,
		text(b.Email),
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		text(b.BHK),
		string(b.Purpose),
		number(b.BudgetMin),
		number(b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		text(b.Notes),
		strings.Join(b.Tags, ";"),
		string(b.Status),
		b.CreatedAt.String(),
		b.UpdatedAt.String(),
	}
}

func text[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

func number(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func sortRowErrors(errs []domain.RowError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
}
