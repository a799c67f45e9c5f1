package game

import (
	"time"

	"github.com/campfire-gg/arcade/pkg/game/action"
	"github.com/campfire-gg/arcade/pkg/game/direction"
	"github.com/campfire-gg/arcade/pkg/game/phase"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/protocol"
	"github.com/campfire-gg/arcade/pkg/tiles"
)

// Maze is the chase variant: rounds of pellet hunting on a tile grid,
// phase-driven, with boosted players hunting everyone else.
type Maze struct {
	options MazeOptions
	m       *tiles.MazeMap

	// initialPickups is the pellet count the current round started
	// with; the live->overtime ratio is measured against it.
	initialPickups int
}

var _ Engine = (*Maze)(nil)

func NewMaze(options MazeOptions, m *tiles.MazeMap) *Maze {
	return &Maze{options: options, m: m}
}

func (z *Maze) Variant() variant.ID {
	return variant.Maze
}

func (z *Maze) Setup(w *World) {
	w.Map = z.m
	w.Width, w.Height = z.m.Size()
	w.Round = 1
	z.populatePickups(w)
	z.setPhase(w, phase.Setup, z.options.SetupTime)
}

func (z *Maze) OnJoin(w *World, p *Player) {
	p.Maze = &MazeState{
		Facing:  direction.None,
		Pending: direction.None,
	}
	z.spawn(w, p)
}

func (z *Maze) OnLeave(w *World, p *Player) {}

func (z *Maze) ValidateInput(input protocol.Input) error {
	if input.Action != action.None {
		return ErrBadInput
	}
	return nil
}

func (z *Maze) Step(w *World) {
	z.advancePhase(w)

	for _, p := range w.Players {
		if p.DueRespawn(w.Now) {
			z.spawn(w, p)
		}
	}

	if w.Phase == phase.Live || w.Phase == phase.Overtime {
		for _, p := range w.Players {
			if p.Alive {
				z.move(w, p)
			}
		}
		z.consumePickups(w)
		z.resolveCatches(w)
	}
}

func (z *Maze) View(w *World, p *Player, view *protocol.PlayerView) {
	s := p.Maze
	tile := z.m.TileAt(s.Pos)

	boostMs := int64(0)
	if s.Boosted(w.Now) {
		boostMs = s.BoostUntil.Sub(w.Now).Milliseconds()
	}

	view.Maze = &protocol.MazeView{
		X:       protocol.Round2(s.Pos.X),
		Y:       protocol.Round2(s.Pos.Y),
		TileX:   tile.X,
		TileY:   tile.Y,
		Facing:  s.Facing,
		Boosted: s.Boosted(w.Now),
		BoostMs: boostMs,
	}
}

func (z *Maze) setPhase(w *World, next phase.ID, duration time.Duration) {
	w.Phase = next
	w.PhaseEnds = w.Now.Add(duration)
	w.Log.Info().
		Str("phase", next.String()).
		Int("round", w.Round).
		Dur("duration", duration).
		Msg("maze phase changed")
}

// advancePhase runs the round state machine. Transitions are
// evaluated at the top of the tick, so a ratio crossed during one
// tick moves the phase on the next.
func (z *Maze) advancePhase(w *World) {
	expired := !w.Now.Before(w.PhaseEnds)

	switch w.Phase {
	case phase.Setup:
		if expired {
			z.setPhase(w, phase.Live, z.options.LiveTime)
		}
	case phase.Live:
		if expired || z.pickupRatio(w) <= MazePickupRatio {
			z.setPhase(w, phase.Overtime, z.options.OvertimeTime)
			z.spawnOvertimeBurst(w)
		}
	case phase.Overtime:
		if expired || w.Pickups.Len() == 0 {
			z.setPhase(w, phase.Reset, z.options.ResetTime)
			z.resetRound(w)
		}
	case phase.Reset:
		if expired {
			z.setPhase(w, phase.Setup, z.options.SetupTime)
		}
	}
}

func (z *Maze) pickupRatio(w *World) float64 {
	if z.initialPickups == 0 {
		return 0
	}
	return float64(w.Pickups.Len()) / float64(z.initialPickups)
}

// spawnOvertimeBurst converts a handful of ordinary pellets into
// power pickups in place.
func (z *Maze) spawnOvertimeBurst(w *World) {
	converted := 0
	w.Pickups.ForEach(func(pickup *Pickup) bool {
		if pickup.Power {
			return true
		}
		w.Pickups.Remove(pickup.ID)
		w.Pickups.Spawn(pickup.Pos, MazePowerValue, MazePickupRadius, true)
		converted++
		return converted < MazeOvertimeBurst
	})

	w.Log.Info().
		Int("converted", converted).
		Msg("overtime power pickups spawned")
}

// resetRound repopulates the maze, brings everyone back to a spawn
// tile and opens the next round.
func (z *Maze) resetRound(w *World) {
	z.populatePickups(w)
	for _, p := range w.Players {
		z.spawn(w, p)
	}
	w.Round++
	w.RequestFullSync()
}

// populatePickups lays a pellet on every open tile and a power pickup
// on every power tile.
func (z *Maze) populatePickups(w *World) {
	w.Pickups.Clear()
	for _, tile := range z.m.OpenTiles() {
		kind := z.m.At(tile)
		if kind == tiles.Spawn {
			continue
		}
		if kind == tiles.Power {
			w.Pickups.Spawn(z.m.Center(tile), MazePowerValue, MazePickupRadius, true)
			continue
		}
		w.Pickups.Spawn(z.m.Center(tile), MazePickupValue, MazePickupRadius, false)
	}
	z.initialPickups = w.Pickups.Len()
}

// spawn places p on a random spawn tile, scanning for any walkable
// tile if the map somehow has none left.
func (z *Maze) spawn(w *World, p *Player) {
	s := p.Maze

	candidates := z.m.Spawns()
	var tile tiles.Tile
	if len(candidates) > 0 {
		tile = candidates[w.Rand().Intn(len(candidates))]
	} else {
		open := z.m.OpenTiles()
		tile = open[0]
	}

	s.Pos = z.m.Center(tile)
	s.Facing = direction.None
	s.Pending = direction.None
	s.BoostUntil = time.Time{}

	p.Alive = true
	p.RespawnAt = time.Time{}
}

func (z *Maze) speed(w *World, p *Player) float64 {
	speed := MazeBaseSpeed
	if w.Phase == phase.Overtime {
		speed *= MazeOvertimeMult
	}
	if p.Maze.Boosted(w.Now) {
		speed *= MazeBoostMult
	}
	return speed
}

// move advances grid-aligned movement: turns snap near tile centers,
// walls snap the player back to the center, and tunnel rows wrap.
func (z *Maze) move(w *World, p *Player) {
	s := p.Maze

	if want := direction.FromVec(p.Input.MoveX, p.Input.MoveY); want != direction.None {
		s.Pending = want
	}

	tile := z.m.TileAt(s.Pos)
	center := z.m.Center(tile)

	if s.Pending != direction.None {
		switch {
		case s.Pending == s.Facing:
			// Already travelling that way.
			s.Pending = direction.None
		case s.Pending == s.Facing.Opposite() && s.Facing != direction.None:
			// Reversals are always allowed.
			s.Facing = s.Pending
			s.Pending = direction.None
		case geom.Distance(s.Pos, center) <= MazeTurnWindow*z.m.TileSize():
			dx, dy := s.Pending.Offsets()
			ahead := tiles.Tile{X: tile.X + dx, Y: tile.Y + dy}
			if z.m.Walkable(ahead) {
				// Snap onto the new axis so corners never cut.
				s.Pos = center
				s.Facing = s.Pending
				s.Pending = direction.None
			}
		}
	}

	if s.Facing == direction.None {
		return
	}

	dx, dy := s.Facing.Offsets()
	step := z.speed(w, p) * w.Dt()
	next := s.Pos.Add(geom.Vec{X: float64(dx) * step, Y: float64(dy) * step})

	// A wall ahead stops movement exactly at the tile center.
	ahead := tiles.Tile{X: tile.X + dx, Y: tile.Y + dy}
	if !z.m.Walkable(ahead) && passedCenter(next, center, dx, dy) {
		s.Pos = center
		return
	}

	if z.m.Wraps(tile.Y) {
		next.X = z.m.WrapX(next.X)
	}
	s.Pos = next
}

// passedCenter reports whether pos has moved beyond the tile center
// along the travel axis.
func passedCenter(pos geom.Vec, center geom.Vec, dx int, dy int) bool {
	if dx != 0 {
		return (pos.X-center.X)*float64(dx) > 0
	}
	return (pos.Y-center.Y)*float64(dy) > 0
}

func (z *Maze) consumePickups(w *World) {
	claimed := map[uint32]struct{}{}
	for _, p := range w.Players {
		if !p.Alive {
			continue
		}
		tile := z.m.TileAt(p.Maze.Pos)

		w.Pickups.ForEach(func(pickup *Pickup) bool {
			if _, taken := claimed[pickup.ID]; taken {
				return true
			}
			if z.m.TileAt(pickup.Pos) != tile {
				return true
			}

			claimed[pickup.ID] = struct{}{}
			w.Pickups.Remove(pickup.ID)
			p.AddScore(pickup.Value)
			if pickup.Power {
				p.Maze.BoostUntil = w.Now.Add(z.options.BoostTime)
			}
			return true
		})
	}
}

// resolveCatches runs boosted-versus-unboosted contact. Catches are
// decided against pre-contact state and then applied, like the arena
// death pass.
func (z *Maze) resolveCatches(w *World) {
	alive := w.AlivePlayers()

	type catch struct {
		hunter *Player
		prey   *Player
	}
	catches := []catch{}

	for i := 0; i < len(alive); i++ {
		for j := i + 1; j < len(alive); j++ {
			p, q := alive[i], alive[j]
			if geom.Distance(p.Maze.Pos, q.Maze.Pos) > MazeCatchRadius*z.m.TileSize() {
				continue
			}

			pBoosted := p.Maze.Boosted(w.Now)
			qBoosted := q.Maze.Boosted(w.Now)
			switch {
			case pBoosted && !qBoosted:
				catches = append(catches, catch{hunter: p, prey: q})
			case qBoosted && !pBoosted:
				catches = append(catches, catch{hunter: q, prey: p})
			}
		}
	}

	caught := map[string]struct{}{}
	for _, c := range catches {
		if _, done := caught[c.prey.ID]; done {
			continue
		}
		caught[c.prey.ID] = struct{}{}

		transfer := c.prey.Score / 2
		c.prey.AddScore(-transfer)
		c.hunter.AddScore(transfer)
		c.prey.Die(w.Now.Add(z.options.RespawnDelay))

		w.Log.Debug().
			Str("hunter", c.hunter.ID).
			Str("prey", c.prey.ID).
			Int("transfer", transfer).
			Msg("maze player caught")
	}
}
