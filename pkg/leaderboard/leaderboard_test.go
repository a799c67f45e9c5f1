package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/variant"

	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeepsMax(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "ana", 10))
	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "ana", 4))
	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "ana", 25))
	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "bob", 12))

	// Scores on one variant never leak into another.
	require.NoError(t, store.SubmitScore(ctx, variant.Combat, "ana", 99))

	entries, err := store.TopScores(ctx, variant.Arena, 10)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Name: "ana", Score: 25},
		{Name: "bob", Score: 12},
	}, entries)
}

func TestMemoryTopScoresLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.SubmitScore(ctx, variant.Maze, "a", 1))
	require.NoError(t, store.SubmitScore(ctx, variant.Maze, "b", 2))
	require.NoError(t, store.SubmitScore(ctx, variant.Maze, "c", 3))

	entries, err := store.TopScores(ctx, variant.Maze, 2)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Name: "c", Score: 3},
		{Name: "b", Score: 2},
	}, entries)
}

// gateStore blocks every submission until released, to simulate a
// stalled backend.
type gateStore struct {
	gate chan struct{}

	mutex    deadlock.Mutex
	received int
}

func newGateStore() *gateStore {
	return &gateStore{gate: make(chan struct{})}
}

func (g *gateStore) SubmitScore(ctx context.Context, v variant.ID, name string, score int) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.mutex.Lock()
	g.received++
	g.mutex.Unlock()
	return nil
}

func (g *gateStore) TopScores(ctx context.Context, v variant.ID, limit int) ([]Entry, error) {
	return nil, nil
}

func (g *gateStore) count() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.received
}

func TestServiceNeverBlocks(t *testing.T) {
	store := newGateStore()
	service := NewService(context.Background(), store, nil)

	total := QueueSize + 50
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			service.Submit(variant.Arena, "ana", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submissions blocked on a stalled store")
	}

	assert.Greater(t, service.Dropped(), 0)

	close(store.gate)
	service.Close()

	// Everything that was not dropped reached the store.
	assert.Equal(t, total-service.Dropped(), store.count())
}

func TestServiceDrainsOnClose(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	service := NewService(ctx, store, nil)

	service.Submit(variant.Arena, "ana", 7)
	service.Submit(variant.Arena, "bob", 3)
	service.Close()

	entries, err := service.TopScores(ctx, variant.Arena, 10)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Name: "ana", Score: 7},
		{Name: "bob", Score: 3},
	}, entries)

	// Submissions after Close are ignored, not queued.
	service.Submit(variant.Arena, "late", 99)
	entries, err = service.TopScores(ctx, variant.Arena, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
