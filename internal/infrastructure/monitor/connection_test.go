package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixedCount int

func (c fixedCount) Size() (int, error) { return int(c), nil }

func TestMonitor_Refresh(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	m := New(pingFunc(healthy), healthy, fixedCount(4), 0, nil)
	m.Refresh()
	status := m.GetStatus()
	assert.True(t, status.Healthy())
	assert.True(t, status.Reports)
	assert.Equal(t, 4, status.ReportCount)
	assert.True(t, m.IsOnline())

	m = New(pingFunc(healthy), down, nil, 0, nil)
	m.Refresh()
	assert.False(t, m.IsOnline())
	assert.False(t, m.GetStatus().Reports)
	m.Stop()
	m.Stop()
}
