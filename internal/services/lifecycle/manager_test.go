package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct{ closed *[]string }

func (c closer) Close() error {
	*c.closed = append(*c.closed, "reports")
	return nil
}

func TestShutdown_StopsInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)
	var stopped []string
	record := func(name string) StopFunc {
		return func(context.Context) error {
			stopped = append(stopped, name)
			return nil
		}
	}

	m.Register("postgres", record("postgres"))
	m.RegisterCloser("reports", closer{closed: &stopped})
	m.Register("http_server", record("http_server"))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "reports", "postgres"}, stopped)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, stopped, 3, "second shutdown is a no-op")
}

func TestShutdown_CollectsFailures(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")
	var ranFirst bool
	m.Register("postgres", func(context.Context) error { ranFirst = true; return nil })
	m.Register("redis", func(context.Context) error { return boom })

	err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "redis: boom")
	assert.True(t, ranFirst)
}

func TestShutdown_AppliesTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

func TestListen_FollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := New(time.Second, nil).Listen(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
}
