package transfer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fastygo/buyerleads/domain"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

var (
	ErrEmptyFile    = domain.NewError(domain.ErrCodeInvalid, "CSV file is empty")
	ErrUnreadable   = domain.NewError(domain.ErrCodeInvalid, "File could not be read")
	ErrUnsupported  = domain.NewError(domain.ErrCodeInvalid, "Unsupported file type; upload a .csv or .xlsx file")
	ErrMissingSheet = domain.NewError(domain.ErrCodeInvalid, "Spreadsheet has no sheets")
)

// Row is one data record keyed by header name. Line is the 1-based position
// of the record in the source file, the header being line 1.
type Row struct {
	Line  int
	Cells map[string]string
	Raw   []string
}

// Table is a parsed file: the data rows plus the rows rejected for shape.
type Table struct {
	Header []string
	Rows   []Row
	Errors []domain.RowError
}

// ParseCSV reads an RFC 4180 document. Quoted fields may hold commas, line
// breaks and doubled quotes. A record whose width differs from the header is
// reported and skipped; parsing continues with the next record.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	table := &Table{}
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if table.Header == nil {
				return nil, ErrUnreadable
			}
			table.Errors = append(table.Errors, domain.RowError{Row: parseErr.StartLine, Message: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, ErrUnreadable.Message, err)
		}

		line, _ := csvReader.FieldPos(0)
		if table.Header == nil {
			if blank(record) {
				continue
			}
			table.Header = headerNames(record)
			continue
		}
		table.add(line, record, false)
	}

	if table.Header == nil {
		return nil, ErrEmptyFile
	}
	return table, nil
}

// ParseXLSX reads the first sheet of a workbook. Spreadsheets drop trailing
// blank cells, so short rows are padded; rows wider than the header are
// rejected like CSV rows.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, ErrUnreadable.Message, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, ErrUnreadable.Message, err)
	}

	table := &Table{}
	for idx, record := range rows {
		if blank(record) {
			continue
		}
		if table.Header == nil {
			table.Header = headerNames(record)
			continue
		}
		table.add(idx+1, record, true)
	}

	if table.Header == nil {
		return nil, ErrEmptyFile
	}
	return table, nil
}

func (t *Table) add(line int, record []string, pad bool) {
	if pad && len(record) < len(t.Header) {
		padded := make([]string, len(t.Header))
		copy(padded, record)
		record = padded
	}
	if len(record) != len(t.Header) {
		if blank(record) {
			return
		}
		t.Errors = append(t.Errors, domain.RowError{
			Row:     line,
			Message: fmt.Sprintf("Expected %d columns, got %d", len(t.Header), len(record)),
			Data:    record,
		})
		return
	}
	if blank(record) {
		return
	}

	cells := make(map[string]string, len(t.Header))
	for i, name := range t.Header {
		if name == "" {
			continue
		}
		cells[name] = record[i]
	}
	t.Rows = append(t.Rows, Row{Line: line, Cells: cells, Raw: record})
}

func headerNames(record []string) []string {
	names := make([]string, len(record))
	for i, name := range record {
		names[i] = strings.TrimSpace(name)
	}
	return names
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
