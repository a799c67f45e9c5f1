package game

import (
	"math"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/action"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/protocol"
)

// Arena is the growth variant: bodies grow by eating pickups, speed
// falls as length rises, and any collision is lethal.
type Arena struct {
	options ArenaOptions
}

var _ Engine = (*Arena)(nil)

func NewArena(options ArenaOptions) *Arena {
	return &Arena{options: options}
}

func (a *Arena) Variant() variant.ID {
	return variant.Arena
}

func (a *Arena) Setup(w *World) {
	a.topUpPickups(w)
}

func (a *Arena) OnJoin(w *World, p *Player) {
	p.Arena = &ArenaState{}
	a.spawn(w, p)
}

func (a *Arena) OnLeave(w *World, p *Player) {}

func (a *Arena) ValidateInput(input protocol.Input) error {
	if input.Action != action.None {
		return ErrBadInput
	}
	return nil
}

func (a *Arena) Step(w *World) {
	for _, p := range w.Players {
		if p.DueRespawn(w.Now) {
			a.spawn(w, p)
		}
	}

	for _, p := range w.Players {
		if p.Alive {
			a.move(w, p)
		}
	}

	a.consumePickups(w)
	a.resolveDeaths(w)
	a.topUpPickups(w)
}

func (a *Arena) View(w *World, p *Player, view *protocol.PlayerView) {
	s := p.Arena
	view.Arena = &protocol.ArenaView{
		X:         protocol.Round2(s.Pos.X),
		Y:         protocol.Round2(s.Pos.Y),
		Heading:   protocol.Round2(s.Heading),
		Speed:     protocol.Round2(s.Speed),
		Thickness: protocol.Round2(s.Thickness),
		Body: protocol.QuantizeBody(
			protocol.DownsampleBody(s.Body, protocol.MaxBodyPoints),
		),
	}
}

func arenaSpeed(length float64) float64 {
	return math.Max(ArenaMinSpeed, ArenaBaseSpeed-length*ArenaSpeedPerLength)
}

func arenaThickness(length float64) float64 {
	return ArenaBaseThickness + length*ArenaThicknessPerLen
}

// spawn places p at a point clear of every living head and rebuilds a
// starting body trailing opposite a fresh random heading.
func (a *Arena) spawn(w *World, p *Player) {
	point := a.clearPoint(w)
	heading := (w.Rand().Float64()*2 - 1) * math.Pi

	s := p.Arena
	s.Pos = point
	s.Heading = heading
	s.Length = ArenaStartLength
	s.Speed = arenaSpeed(s.Length)
	s.Thickness = arenaThickness(s.Length)

	tail := geom.FromAngle(heading).Mul(-1)
	s.Body = s.Body[:0]
	for offset := 0.0; offset <= ArenaStartLength; offset += ArenaBodySpacing {
		s.Body = append(s.Body, point.Add(tail.Mul(offset)))
	}

	p.Alive = true
	p.RespawnAt = time.Time{}
}

// clearPoint searches for a spot with clearance from every living
// player, falling back to the arena center so a crowded world can
// never stall a respawn.
func (a *Arena) clearPoint(w *World) geom.Vec {
	for attempt := 0; attempt < ArenaSpawnAttempts; attempt++ {
		point := w.RandomPoint(ArenaSpawnClear)
		clear := true
		for _, other := range w.AlivePlayers() {
			if geom.Distance(point, other.Arena.Pos) < ArenaSpawnClear {
				clear = false
				break
			}
		}
		if clear {
			return point
		}
	}
	return geom.Vec{X: w.Width / 2, Y: w.Height / 2}
}

func (a *Arena) move(w *World, p *Player) {
	s := p.Arena
	dt := w.Dt()

	// With no input the head holds its heading.
	target := s.Heading
	move := geom.Vec{X: p.Input.MoveX, Y: p.Input.MoveY}
	if move.Magnitude() >= InputEpsilon {
		target = move.Angle()
	}

	delta := geom.WrapAngle(target - s.Heading)
	maxTurn := ArenaTurnRate * dt
	delta = geom.Clamp(delta, -maxTurn, maxTurn)
	s.Heading = geom.WrapAngle(s.Heading + delta)

	s.Speed = arenaSpeed(s.Length)
	s.Thickness = arenaThickness(s.Length)

	head := s.Pos.Add(geom.FromAngle(s.Heading).Mul(s.Speed * dt))
	margin := math.Max(s.Thickness, ArenaMinMargin)
	head.X = geom.Clamp(head.X, margin, w.Width-margin)
	head.Y = geom.Clamp(head.Y, margin, w.Height-margin)

	s.Pos = head
	s.Body = append([]geom.Vec{head}, s.Body...)
	a.fitBody(s)
}

// fitBody trims or extends the body so its path length is exactly the
// clamped target length. The boundary point is interpolated so a trim
// never jumps by a whole segment.
func (a *Arena) fitBody(s *ArenaState) {
	target := geom.Clamp(s.Length, ArenaMinLength, ArenaMaxLength)

	if len(s.Body) < 2 {
		// Degenerate body; rebuild a straight tail.
		tail := geom.FromAngle(s.Heading).Mul(-1)
		s.Body = append(s.Body[:0], s.Pos, s.Pos.Add(tail.Mul(target)))
		return
	}

	total := 0.0
	for i := 0; i+1 < len(s.Body); i++ {
		segment := geom.Distance(s.Body[i], s.Body[i+1])
		if total+segment >= target {
			t := 0.0
			if segment > 1e-9 {
				t = (target - total) / segment
			}
			boundary := geom.Lerp(s.Body[i], s.Body[i+1], t)
			s.Body = append(s.Body[:i+1], boundary)
			return
		}
		total += segment
	}

	// The path is shorter than the target, which happens right after
	// growth; stretch the final segment backwards to make up the
	// difference.
	last := len(s.Body) - 1
	dir := s.Body[last].Sub(s.Body[last-1])
	if dir.Magnitude() < 1e-9 {
		dir = geom.FromAngle(s.Heading).Mul(-1)
	}
	s.Body[last] = s.Body[last].Add(dir.Scale(target - total))
}

func (a *Arena) consumePickups(w *World) {
	claimed := map[uint32]struct{}{}
	for _, p := range w.Players {
		if !p.Alive {
			continue
		}
		s := p.Arena
		reach := s.Thickness * ArenaGrabFactor

		w.Pickups.ForEach(func(pickup *Pickup) bool {
			if _, taken := claimed[pickup.ID]; taken {
				return true
			}
			if geom.Distance(s.Pos, pickup.Pos) > reach+pickup.Radius {
				return true
			}

			claimed[pickup.ID] = struct{}{}
			w.Pickups.Remove(pickup.ID)
			s.Length = geom.Clamp(
				s.Length+float64(pickup.Value)*ArenaGrowthPerValue,
				ArenaMinLength,
				ArenaMaxLength,
			)
			p.AddScore(pickup.Value)
			return true
		})
	}
}

// resolveDeaths evaluates every lethal condition against the state
// all players ended the movement phase in, then applies the kills in
// one pass, so outcomes never depend on iteration order.
func (a *Arena) resolveDeaths(w *World) {
	alive := w.AlivePlayers()
	dead := map[string]struct{}{}
	headOnHead := map[string]struct{}{}

	kill := func(p *Player) {
		dead[p.ID] = struct{}{}
	}

	for _, p := range alive {
		s := p.Arena
		if s.Pos.X < 0 || s.Pos.X > w.Width || s.Pos.Y < 0 || s.Pos.Y > w.Height {
			kill(p)
			continue
		}

		for i := ArenaSelfSkip; i+1 < len(s.Body); i++ {
			if geom.SegmentDistance(s.Pos, s.Body[i], s.Body[i+1]) < s.Thickness*ArenaBodyFactor {
				kill(p)
				break
			}
		}
	}

	for i := 0; i < len(alive); i++ {
		for j := i + 1; j < len(alive); j++ {
			p, q := alive[i], alive[j]
			threshold := (p.Arena.Thickness + q.Arena.Thickness) * ArenaHeadFactor
			if geom.Distance(p.Arena.Pos, q.Arena.Pos) >= threshold {
				continue
			}

			headOnHead[pairKey(p.ID, q.ID)] = struct{}{}
			switch {
			case p.Arena.Length < q.Arena.Length:
				kill(p)
			case q.Arena.Length < p.Arena.Length:
				kill(q)
			default:
				kill(p)
				kill(q)
			}
		}
	}

	for i := 0; i < len(alive); i++ {
		for j := 0; j < len(alive); j++ {
			if i == j {
				continue
			}
			p, q := alive[i], alive[j]
			if _, resolved := headOnHead[pairKey(p.ID, q.ID)]; resolved {
				continue
			}

			threshold := (p.Arena.Thickness + q.Arena.Thickness) * ArenaBodyFactor
			body := q.Arena.Body
			for k := 0; k+1 < len(body); k++ {
				if geom.SegmentDistance(p.Arena.Pos, body[k], body[k+1]) < threshold {
					kill(p)
					break
				}
			}
		}
	}

	for _, p := range alive {
		if _, died := dead[p.ID]; died {
			a.die(w, p)
		}
	}
}

func pairKey(a string, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

// die schedules the respawn and scatters part of the corpse back into
// the world as food.
func (a *Arena) die(w *World, p *Player) {
	s := p.Arena
	p.Die(w.Now.Add(a.options.RespawnDelay))

	limit := a.options.TargetPickups * 2
	walked := 0.0
	next := 0.0
	for i := 0; i+1 < len(s.Body) && w.Pickups.Len() < limit; i++ {
		segment := geom.Distance(s.Body[i], s.Body[i+1])
		for next <= walked+segment {
			if w.Pickups.Len() >= limit {
				break
			}
			t := 0.0
			if segment > 1e-9 {
				t = (next - walked) / segment
			}
			point := geom.Lerp(s.Body[i], s.Body[i+1], t)
			w.Pickups.Spawn(point, ArenaPickupValue, ArenaPickupRadius, false)
			next += ArenaScatterSpacing
		}
		walked += segment
	}

	w.Log.Debug().
		Str("player", p.ID).
		Int("score", p.Score).
		Msg("arena player eliminated")
}

func (a *Arena) topUpPickups(w *World) {
	for w.Pickups.Len() < a.options.TargetPickups {
		point := w.RandomPoint(ArenaPickupRadius * 2)
		w.Pickups.Spawn(point, ArenaPickupValue, ArenaPickupRadius, false)
	}
}
