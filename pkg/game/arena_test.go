package game

import (
	"math"
	"testing"
	"time"

	"github.com/campfire-gg/arcade/pkg/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arenaWorld(seed int64) (*World, *Arena) {
	options := DefaultOptions()
	w := NewWorld(
		options.Arena.Width,
		options.Arena.Height,
		options.TickInterval,
		seed,
	)
	a := NewArena(options.Arena)
	a.Setup(w)
	return w, a
}

func arenaPlayer(w *World, a *Arena, id string) *Player {
	p := NewPlayer(id, id, 0, w.Now)
	w.AddPlayer(p)
	a.OnJoin(w, p)
	return p
}

// placeSnake pins a player to an exact position, heading and length
// with a straight body, so collision geometry is predictable.
func placeSnake(p *Player, pos geom.Vec, heading float64, length float64) {
	s := p.Arena
	s.Pos = pos
	s.Heading = heading
	s.Length = length
	s.Speed = arenaSpeed(length)
	s.Thickness = arenaThickness(length)

	tail := geom.FromAngle(heading).Mul(-1)
	s.Body = []geom.Vec{pos, pos.Add(tail.Mul(length))}
	p.Alive = true
}

func bodyLength(body []geom.Vec) float64 {
	total := 0.0
	for i := 0; i+1 < len(body); i++ {
		total += geom.Distance(body[i], body[i+1])
	}
	return total
}

func TestArenaZeroInputHoldsHeading(t *testing.T) {
	w, a := arenaWorld(7)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0.3, ArenaStartLength)

	before := p.Arena.Pos
	heading := p.Arena.Heading
	speed := p.Arena.Speed

	w.Seq++
	a.Step(w)

	expected := before.Add(geom.FromAngle(heading).Mul(speed * w.Dt()))
	assert.InDelta(t, heading, p.Arena.Heading, 1e-9)
	assert.InDelta(t, expected.X, p.Arena.Pos.X, 1e-9)
	assert.InDelta(t, expected.Y, p.Arena.Pos.Y, 1e-9)
	assert.True(t, p.Alive)
}

func TestArenaTurnRateBound(t *testing.T) {
	w, a := arenaWorld(7)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)

	// A right-angle turn request is limited to ArenaTurnRate per
	// second.
	p.Input.MoveX = 0
	p.Input.MoveY = 1
	a.Step(w)

	assert.InDelta(t, ArenaTurnRate*w.Dt(), p.Arena.Heading, 1e-9)
}

func TestArenaEatingGrows(t *testing.T) {
	w, a := arenaWorld(7)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)

	w.Pickups.Clear()
	pickup := w.Pickups.Spawn(p.Arena.Pos, 5, ArenaPickupRadius, false)
	before := p.Arena.Length

	a.consumePickups(w)

	assert.InDelta(t, before+5*ArenaGrowthPerValue, p.Arena.Length, 1e-9)
	assert.Equal(t, 5, p.Score)
	assert.Equal(t, 5, p.Best)
	_, present := w.Pickups.Get(pickup.ID)
	assert.False(t, present)
}

func TestArenaHeadOnEqualLengthsBothDie(t *testing.T) {
	w, a := arenaWorld(3)
	p := arenaPlayer(w, a, "ana")
	q := arenaPlayer(w, a, "bob")

	// Facing each other, bodies trailing apart, five units between
	// the heads.
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)
	placeSnake(q, geom.Vec{X: 1005, Y: 1000}, math.Pi, ArenaStartLength)

	a.resolveDeaths(w)

	assert.False(t, p.Alive)
	assert.False(t, q.Alive)
	assert.Equal(t, w.Now.Add(a.options.RespawnDelay), p.RespawnAt)
	assert.Equal(t, w.Now.Add(a.options.RespawnDelay), q.RespawnAt)
}

func TestArenaHeadOnShorterDies(t *testing.T) {
	w, a := arenaWorld(3)
	p := arenaPlayer(w, a, "ana")
	q := arenaPlayer(w, a, "bob")

	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)
	placeSnake(q, geom.Vec{X: 1005, Y: 1000}, math.Pi, ArenaStartLength*2)

	a.resolveDeaths(w)

	assert.False(t, p.Alive)
	assert.True(t, q.Alive)
}

func TestArenaBodyCollisionKills(t *testing.T) {
	w, a := arenaWorld(3)
	p := arenaPlayer(w, a, "ana")
	q := arenaPlayer(w, a, "bob")

	// p's head rests on the middle of q's body, well away from q's
	// head.
	placeSnake(q, geom.Vec{X: 1000, Y: 1000}, 0, 100)
	placeSnake(p, geom.Vec{X: 950, Y: 1002}, math.Pi/2, ArenaStartLength)

	a.resolveDeaths(w)

	assert.False(t, p.Alive)
	assert.True(t, q.Alive)
}

func TestArenaOutOfBoundsKills(t *testing.T) {
	w, a := arenaWorld(3)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: -5, Y: 1000}, 0, ArenaStartLength)

	a.resolveDeaths(w)

	assert.False(t, p.Alive)
}

func TestArenaCorpseScatters(t *testing.T) {
	w, a := arenaWorld(3)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)

	before := w.Pickups.Len()
	a.die(w, p)

	// A 60 unit body drops food at 0, 30 and 60 along its path.
	assert.Equal(t, before+3, w.Pickups.Len())
	assert.False(t, p.Alive)
}

func TestArenaRespawnAfterDelay(t *testing.T) {
	w, a := arenaWorld(9)
	p := arenaPlayer(w, a, "ana")

	p.Die(w.Now.Add(a.options.RespawnDelay))

	w.Now = w.Now.Add(time.Second)
	a.Step(w)
	assert.False(t, p.Alive)

	w.Now = w.Now.Add(a.options.RespawnDelay)
	a.Step(w)
	assert.True(t, p.Alive)
	assert.InDelta(t, ArenaStartLength, p.Arena.Length, 1e-9)
	assert.True(t, p.RespawnAt.IsZero())
}

func TestArenaBodyTracksLength(t *testing.T) {
	w, a := arenaWorld(5)
	p := arenaPlayer(w, a, "ana")
	placeSnake(p, geom.Vec{X: 1000, Y: 1000}, 0, ArenaStartLength)

	for i := 0; i < 30; i++ {
		direction := geom.FromAngle(float64(i) * 0.1)
		p.Input.MoveX = direction.X
		p.Input.MoveY = direction.Y

		w.Seq++
		a.Step(w)

		require.True(t, p.Alive)
		target := geom.Clamp(p.Arena.Length, ArenaMinLength, ArenaMaxLength)
		assert.InDelta(t, target, bodyLength(p.Arena.Body), 1e-6)
	}
}

func TestArenaPickupsTopUp(t *testing.T) {
	w, a := arenaWorld(5)

	assert.Equal(t, a.options.TargetPickups, w.Pickups.Len())

	for _, pickup := range w.Pickups.All()[:10] {
		w.Pickups.Remove(pickup.ID)
	}
	a.topUpPickups(w)
	assert.Equal(t, a.options.TargetPickups, w.Pickups.Len())
}
