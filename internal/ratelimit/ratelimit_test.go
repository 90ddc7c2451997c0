package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowIsPerKey(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Hour, 2)

	assert.True(t, l.Allow("a.example"))
	assert.True(t, l.Allow("a.example"))
	assert.False(t, l.Allow("a.example"))
	assert.True(t, l.Allow("b.example"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Hour, 1)
	require.NoError(t, l.Wait(context.Background(), "host"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "host"))
}

func TestNewPerSecondUnlimited(t *testing.T) {
	l := NewPerSecond(0, 1)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("host"))
	}
}
