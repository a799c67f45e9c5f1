package game

import (
	"fmt"

	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/protocol"
	"github.com/campfire-gg/arcade/pkg/tiles"
)

// Engine is one variant's complete rule set. A session picks its
// engine once at creation and never dispatches on the variant again.
// Engines own movement, collision, elimination and respawn; the
// session owns everything around them.
type Engine interface {
	Variant() variant.ID

	// Setup prepares a fresh world before the first tick runs.
	Setup(w *World)

	// OnJoin readies the variant payload of a newly added player and
	// places it into the world. OnLeave is the inverse hook; most
	// engines need nothing beyond the session's own bookkeeping.
	OnJoin(w *World, p *Player)
	OnLeave(w *World, p *Player)

	// ValidateInput rejects payloads the variant cannot apply, before
	// they are stored as pending input.
	ValidateInput(input protocol.Input) error

	// Step advances the world by exactly one tick.
	Step(w *World)

	// View fills in the variant payload of a player's wire view.
	View(w *World, p *Player, view *protocol.PlayerView)
}

// NewEngine builds the engine for a variant. The maze engine needs a
// map; the others ignore it.
func NewEngine(v variant.ID, options Options, m *tiles.MazeMap) (Engine, error) {
	switch v {
	case variant.Arena:
		return NewArena(options.Arena), nil
	case variant.Maze:
		if m == nil {
			return nil, fmt.Errorf("maze variant needs a map")
		}
		return NewMaze(options.Maze, m), nil
	case variant.Combat:
		return NewCombat(options.Combat), nil
	}
	return nil, fmt.Errorf("unknown variant %d", v)
}
