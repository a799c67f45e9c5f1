package game

import (
	"math/rand"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/phase"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/tiles"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
)

// World is the complete simulated state of one session. It is only
// ever touched from the owning session's goroutine, so nothing in it
// is locked.
type World struct {
	Width  float64
	Height float64
	// Map is only set for the maze variant.
	Map *tiles.MazeMap

	// Seq increases by exactly one per simulated tick.
	Seq uint64
	// Now is the wall clock time of the current tick.
	Now time.Time
	// Interval is the fixed simulation step.
	Interval time.Duration

	// Players holds join order; engines rely on it for deterministic
	// resolution of contested pickups and trades.
	Players []*Player
	Pickups *PickupSet

	// Phase state machine, maze only.
	Phase     phase.ID
	PhaseEnds time.Time
	Round     int

	// Round clock, combat only.
	RoundEnds time.Time

	Log zerolog.Logger

	rng       *rand.Rand
	forceFull bool
}

func NewWorld(width float64, height float64, interval time.Duration, seed int64) *World {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &World{
		Width:    width,
		Height:   height,
		Now:      time.Now(),
		Interval: interval,
		Pickups:  NewPickupSet(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Dt is the simulation step in seconds.
func (w *World) Dt() float64 {
	return w.Interval.Seconds()
}

func (w *World) Rand() *rand.Rand {
	return w.rng
}

// RandomPoint returns a point inside the world inset by margin on
// every side.
func (w *World) RandomPoint(margin float64) geom.Vec {
	return geom.Vec{
		X: margin + w.rng.Float64()*(w.Width-2*margin),
		Y: margin + w.rng.Float64()*(w.Height-2*margin),
	}
}

func (w *World) AddPlayer(p *Player) {
	w.Players = append(w.Players, p)
}

func (w *World) RemovePlayer(id string) {
	for i, p := range w.Players {
		if p.ID == id {
			w.Players = append(w.Players[:i], w.Players[i+1:]...)
			return
		}
	}
}

func (w *World) FindPlayer(id string) opt.Option[*Player] {
	for _, p := range w.Players {
		if p.ID == id {
			return opt.Some(p)
		}
	}
	return opt.None[*Player]()
}

func (w *World) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(w.Players))
	for _, p := range w.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// RequestFullSync asks the session to force the next broadcast's
// pickup payload to be full. Engines call it after bulk changes like
// a maze repopulation.
func (w *World) RequestFullSync() {
	w.forceFull = true
}

// TakeFullSyncRequest reports and clears the pending request.
func (w *World) TakeFullSyncRequest() bool {
	requested := w.forceFull
	w.forceFull = false
	return requested
}
