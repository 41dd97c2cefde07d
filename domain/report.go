package domain

import "time"

// RowError describes why one imported row was skipped. Row is the 1-based line
// of the source file, the header being row 1.
type RowError struct {
	Row     int      `json:"row"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
	Data    []string `json:"data,omitempty"`
}

// ImportReport records the outcome of one file import so failed rows can be
// downloaded later.
type ImportReport struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	FileName     string     `json:"fileName"`
	Format       string     `json:"format"`
	Accepted     bool       `json:"accepted"`
	RejectReason string     `json:"rejectReason,omitempty"`
	ValidCount   int        `json:"validCount"`
	ErrorCount   int        `json:"errorCount"`
	CreatedCount int        `json:"createdCount"`
	Errors       []RowError `json:"errors,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
