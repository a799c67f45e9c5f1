package game

import (
	"time"

	"github.com/campfire-gg/arcade/pkg/game/action"
	"github.com/campfire-gg/arcade/pkg/game/direction"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/protocol"
)

// ArenaState is the growth arena payload. Body runs head first; its
// summed segment length always equals the clamped Length.
type ArenaState struct {
	Pos       geom.Vec
	Heading   float64
	Speed     float64
	Length    float64
	Thickness float64
	Body      []geom.Vec
}

type MazeState struct {
	Pos geom.Vec
	// Facing is the direction currently travelled. Pending is the
	// most recent requested turn, applied near a tile center.
	Facing     direction.ID
	Pending    direction.ID
	BoostUntil time.Time
}

func (m *MazeState) Boosted(now time.Time) bool {
	return now.Before(m.BoostUntil)
}

type CombatState struct {
	Pos geom.Vec
	Vel geom.Vec
	// Facing is -1 for left, 1 for right.
	Facing   int8
	Health   int
	Grounded bool

	Attack       action.ID
	AttackUntil  time.Time
	AttackLanded bool
	BlockUntil   time.Time
	StunUntil    time.Time

	JumpReady   time.Time
	AttackReady time.Time
	BlockReady  time.Time
}

func (c *CombatState) Attacking(now time.Time) bool {
	return c.Attack != action.None && now.Before(c.AttackUntil)
}

func (c *CombatState) Blocking(now time.Time) bool {
	return now.Before(c.BlockUntil)
}

func (c *CombatState) Stunned(now time.Time) bool {
	return now.Before(c.StunUntil)
}

// Player is one participant's state. The identity and score header
// is shared by every variant; exactly one variant payload is set for
// the session's lifetime.
type Player struct {
	ID    string
	Name  string
	Color int32
	Score int
	// Best is the highest score this player reached in the session;
	// it is what the leaderboard receives.
	Best  int
	Alive bool

	JoinedAt  time.Time
	LastInput time.Time
	// RespawnAt is when a dead player re-enters the world.
	RespawnAt time.Time

	// Input is the pending intent, applied on the next tick. The
	// movement vector persists between ticks; the action is consumed
	// when applied.
	Input protocol.Input

	Arena  *ArenaState
	Maze   *MazeState
	Combat *CombatState
}

func NewPlayer(id string, name string, color int32, now time.Time) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Color:    color,
		JoinedAt: now,
		Input:    protocol.Input{Action: action.None},
	}
}

// AddScore adjusts the score by delta, which may be negative, and
// keeps Best in step.
func (p *Player) AddScore(delta int) {
	p.Score += delta
	if p.Score > p.Best {
		p.Best = p.Score
	}
}

// Die marks the player dead and schedules its return.
func (p *Player) Die(respawnAt time.Time) {
	p.Alive = false
	p.RespawnAt = respawnAt
}

// DueRespawn reports whether a dead player should come back now.
func (p *Player) DueRespawn(now time.Time) bool {
	return !p.Alive && !p.RespawnAt.IsZero() && !now.Before(p.RespawnAt)
}
