package domain

// HistoryAction tells how a history entry came to be.
type HistoryAction string

const (
	ActionCreated        HistoryAction = "created"
	ActionUpdated        HistoryAction = "updated"
	ActionCreatedFromCSV HistoryAction = "created_from_csv"
)

// FieldChange is the before/after pair of one tracked field.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// HistoryDiff is the JSON payload stored with every history entry. Creations carry
// the full record in Data, updates carry only the changed fields.
type HistoryDiff struct {
	Action  HistoryAction          `json:"action"`
	Data    *Buyer                 `json:"data,omitempty"`
	Changes map[string]FieldChange `json:"changes,omitempty"`
}

// HistoryEntry is an immutable audit record for a buyer.
type HistoryEntry struct {
	ID            string      `json:"id"`
	BuyerID       string      `json:"buyerId"`
	ChangedBy     string      `json:"changedBy"`
	ChangedByName string      `json:"changedByName,omitempty"`
	ChangedAt     Timestamp   `json:"changedAt"`
	Diff          HistoryDiff `json:"diff"`
}
