package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the only textual form a Timestamp is ever written in.
// Six fractional digits match the resolution Postgres keeps for timestamptz.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp is a UTC instant truncated to microseconds. Buyer.UpdatedAt doubles
// as the optimistic concurrency token, so its text form must round-trip exactly.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalises t to UTC microseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// ParseTimestamp accepts any RFC 3339 value. Sub-microsecond digits are kept so a
// token that was never issued by the server cannot accidentally match one.
func ParseTimestamp(value string) (Timestamp, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return Timestamp{Time: parsed.UTC()}, nil
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Equal compares the two instants.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

// Next returns the token that follows t when a write happens at now. It never
// returns a value equal to t, even if the clock has not advanced.
func (t Timestamp) Next(now time.Time) Timestamp {
	candidate := NewTimestamp(now)
	if candidate.After(t.Time) {
		return candidate
	}
	return Timestamp{Time: t.Add(time.Microsecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
