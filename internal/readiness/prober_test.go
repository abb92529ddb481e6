package readiness

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/kvsync/internal/storage"
)

func TestReadyUsesCachedResultWithinStaleAge(t *testing.T) {
	var calls int64
	p := New(func(ctx context.Context) storage.Health {
		atomic.AddInt64(&calls, 1)
		return storage.Health{OK: true}
	}, time.Hour, time.Hour)

	p.Start(context.Background())
	t.Cleanup(p.Stop)

	time.Sleep(20 * time.Millisecond)
	result := p.Ready(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestReadyFallsBackWhenStale(t *testing.T) {
	var calls int64
	p := New(func(ctx context.Context) storage.Health {
		atomic.AddInt64(&calls, 1)
		return storage.Health{OK: true}
	}, time.Hour, time.Millisecond)

	result := p.Ready(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	time.Sleep(5 * time.Millisecond)
	result = p.Ready(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestReadyReportsUnhealthy(t *testing.T) {
	p := New(func(ctx context.Context) storage.Health {
		return storage.Health{OK: false, Details: "connection refused"}
	}, time.Hour, time.Hour)

	result := p.Ready(context.Background())
	assert.False(t, result.OK)
	assert.Equal(t, "connection refused", result.Details)
}
