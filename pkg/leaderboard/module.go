package leaderboard

import (
	"context"
	"sort"

	"github.com/campfire-gg/arcade/pkg/game/variant"

	"github.com/sasha-s/go-deadlock"
)

// Entry is one row on a variant's leaderboard.
type Entry struct {
	Name  string
	Score int
}

// Store keeps the best score each name has ever posted, per variant.
// Submitting a lower score than a name's current best is a no-op.
type Store interface {
	SubmitScore(ctx context.Context, v variant.ID, name string, score int) error
	TopScores(ctx context.Context, v variant.ID, limit int) ([]Entry, error)
}

// MemoryStore serves deployments without redis, and tests.
type MemoryStore struct {
	mutex  deadlock.Mutex
	scores map[variant.ID]map[string]int
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		scores: make(map[variant.ID]map[string]int),
	}
}

func (m *MemoryStore) SubmitScore(ctx context.Context, v variant.ID, name string, score int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	board, ok := m.scores[v]
	if !ok {
		board = make(map[string]int)
		m.scores[v] = board
	}

	if best, ok := board[name]; ok && best >= score {
		return nil
	}
	board[name] = score
	return nil
}

func (m *MemoryStore) TopScores(ctx context.Context, v variant.ID, limit int) ([]Entry, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	board := m.scores[v]
	entries := make([]Entry, 0, len(board))
	for name, score := range board {
		entries = append(entries, Entry{Name: name, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
