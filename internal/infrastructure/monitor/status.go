package monitor

import "time"

// Status is the last observed health of every backing store.
type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Reports     bool      `json:"reports"`
	ReportCount int       `json:"reportCount"`
	LastCheck   time.Time `json:"lastCheck"`
}

// Healthy reports whether the stores the API cannot work without respond.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis
}
