package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitForTick(t *testing.T, ticker *Ticker, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-ticker.C:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestDelivers(t *testing.T) {
	ticker := New(5 * time.Millisecond)
	defer ticker.Stop()

	assert.True(t, waitForTick(t, ticker, time.Second))
	assert.Equal(t, 5*time.Millisecond, ticker.Interval())
}

func TestPauseResume(t *testing.T) {
	ticker := New(5 * time.Millisecond)
	defer ticker.Stop()

	assert.True(t, waitForTick(t, ticker, time.Second))

	ticker.Pause()
	assert.True(t, ticker.Paused())

	// Drain anything that was already in flight when we paused.
	waitForTick(t, ticker, 20*time.Millisecond)
	assert.False(t, waitForTick(t, ticker, 50*time.Millisecond))

	ticker.Resume()
	assert.False(t, ticker.Paused())
	assert.True(t, waitForTick(t, ticker, time.Second))
}

func TestStop(t *testing.T) {
	ticker := New(5 * time.Millisecond)
	ticker.Stop()
	assert.True(t, ticker.Stopped())
}
