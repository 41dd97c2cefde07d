package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_TextRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.FixedZone("IST", 19800)))
	assert.Equal(t, "2025-03-01T04:30:00.123456Z", ts.String())

	raw, err := json.Marshal(ts)
	require.NoError(t, err)
	var decoded Timestamp
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, ts.Equal(decoded))
}

func TestTimestamp_ParseKeepsExtraPrecision(t *testing.T) {
	issued := NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC))
	forged, err := ParseTimestamp("2025-03-01T10:00:00.123456001Z")
	require.NoError(t, err)
	assert.False(t, issued.Equal(forged))

	offset, err := ParseTimestamp("2025-03-01T15:30:00.123456+05:30")
	require.NoError(t, err)
	assert.True(t, issued.Equal(offset))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimestamp_NextIsStrictlyIncreasing(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ts := NewTimestamp(now)

	assert.Equal(t, now.Add(time.Microsecond), ts.Next(now).Time)
	assert.Equal(t, now.Add(time.Microsecond), ts.Next(now.Add(-time.Hour)).Time)
	assert.Equal(t, now.Add(time.Second), ts.Next(now.Add(time.Second)).Time)
}

func TestTimestamp_NullJSON(t *testing.T) {
	raw, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	ts := NewTimestamp(time.Now())
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"not a time"`), &ts))
}
