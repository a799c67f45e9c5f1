package game

import (
	"math"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/action"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/protocol"
)

// Combat is the fighting variant: a side-view stage with gravity,
// punches, kicks, blocking and knockouts. The round clock resets the
// stage when it runs out; nobody is declared a winner.
//
// TODO: decide how round results should score before this variant is
// surfaced anywhere competitive.
type Combat struct {
	options CombatOptions
}

var _ Engine = (*Combat)(nil)

func NewCombat(options CombatOptions) *Combat {
	return &Combat{options: options}
}

func (c *Combat) Variant() variant.ID {
	return variant.Combat
}

func (c *Combat) groundY() float64 {
	return c.options.StageHeight - CombatGroundInset
}

func (c *Combat) Setup(w *World) {
	w.RoundEnds = w.Now.Add(c.options.RoundTime)
}

func (c *Combat) OnJoin(w *World, p *Player) {
	p.Combat = &CombatState{}
	c.spawn(w, p)
}

func (c *Combat) OnLeave(w *World, p *Player) {}

func (c *Combat) ValidateInput(input protocol.Input) error {
	if input.Action != action.None && !action.Valid(input.Action) {
		return ErrBadInput
	}
	return nil
}

func (c *Combat) Step(w *World) {
	if !w.Now.Before(w.RoundEnds) {
		c.resetRound(w)
	}

	for _, p := range w.Players {
		if p.DueRespawn(w.Now) {
			c.spawn(w, p)
		}
	}

	for _, p := range w.Players {
		if p.Alive {
			c.movePlayer(w, p)
		}
	}

	c.resolveHits(w)
}

func (c *Combat) View(w *World, p *Player, view *protocol.PlayerView) {
	s := p.Combat

	attack := action.None
	if s.Attacking(w.Now) {
		attack = s.Attack
	}

	view.Combat = &protocol.CombatView{
		X:         protocol.Round2(s.Pos.X),
		Y:         protocol.Round2(s.Pos.Y),
		VX:        protocol.Round2(s.Vel.X),
		VY:        protocol.Round2(s.Vel.Y),
		Facing:    s.Facing,
		Health:    s.Health,
		Grounded:  s.Grounded,
		Attacking: s.Attacking(w.Now),
		Blocking:  s.Blocking(w.Now),
		Stunned:   s.Stunned(w.Now),
		Attack:    attack,
	}
}

// resetRound restores everyone to full health at fresh positions and
// restarts the clock. Scores carry across rounds.
func (c *Combat) resetRound(w *World) {
	for _, p := range w.Players {
		c.spawn(w, p)
	}
	w.RoundEnds = w.Now.Add(c.options.RoundTime)

	w.Log.Info().
		Int("players", len(w.Players)).
		Msg("combat round timer elapsed, stage reset")
}

// spawn drops the player in from above the stage at full health with
// every window cleared.
func (c *Combat) spawn(w *World, p *Player) {
	s := p.Combat

	x := CombatStageMargin +
		w.Rand().Float64()*(c.options.StageWidth-2*CombatStageMargin)
	s.Pos = geom.Vec{X: x, Y: c.groundY() - CombatDropHeight}
	s.Vel = geom.Vec{}
	s.Health = c.options.MaxHealth
	s.Grounded = false
	if x < c.options.StageWidth/2 {
		s.Facing = 1
	} else {
		s.Facing = -1
	}

	s.Attack = action.None
	s.AttackUntil = time.Time{}
	s.AttackLanded = false
	s.BlockUntil = time.Time{}
	s.StunUntil = time.Time{}

	p.Alive = true
	p.RespawnAt = time.Time{}
}

func (c *Combat) movePlayer(w *World, p *Player) {
	s := p.Combat
	dt := w.Dt()
	now := w.Now

	s.Vel.Y += CombatGravity * dt

	if s.Stunned(now) {
		// Stun leaves only friction in charge.
		s.Vel.X *= math.Exp(-CombatFrictionRate * dt)
	} else {
		axis := geom.Clamp(p.Input.MoveX, -1, 1)
		if math.Abs(axis) >= InputEpsilon {
			s.Vel.X = axis * CombatMoveSpeed
			if axis < 0 {
				s.Facing = -1
			} else {
				s.Facing = 1
			}
		} else {
			s.Vel.X *= math.Exp(-CombatFrictionRate * dt)
		}

		c.applyAction(w, p)
	}

	s.Pos = s.Pos.Add(s.Vel.Mul(dt))

	if s.Pos.Y >= c.groundY() {
		s.Pos.Y = c.groundY()
		s.Vel.Y = 0
		s.Grounded = true
	} else {
		s.Grounded = false
	}

	s.Pos.X = geom.Clamp(
		s.Pos.X,
		CombatStageMargin,
		c.options.StageWidth-CombatStageMargin,
	)

	if s.Attack != action.None && !now.Before(s.AttackUntil) {
		s.Attack = action.None
		s.AttackLanded = false
	}
}

// applyAction consumes the single pending action, gated by the
// per-action cooldowns.
func (c *Combat) applyAction(w *World, p *Player) {
	s := p.Combat
	now := w.Now

	act := p.Input.Action
	p.Input.Action = action.None
	if act == action.None {
		return
	}

	switch act {
	case action.Jump:
		if s.Grounded && !now.Before(s.JumpReady) {
			s.Vel.Y = -CombatJumpSpeed
			s.Grounded = false
			s.JumpReady = now.Add(CombatJumpCooldown)
		}
	case action.Punch, action.Kick:
		if s.Attacking(now) || now.Before(s.AttackReady) {
			return
		}
		s.Attack = act
		s.AttackUntil = now.Add(CombatAttackWindow)
		s.AttackLanded = false
		if act == action.Punch {
			s.AttackReady = now.Add(CombatPunchCooldown)
		} else {
			s.AttackReady = now.Add(CombatKickCooldown)
		}
	case action.Block:
		if !now.Before(s.BlockReady) {
			s.BlockUntil = now.Add(CombatBlockDuration)
			s.BlockReady = now.Add(CombatBlockCooldown)
		}
	}
}

type box struct {
	minX, minY float64
	maxX, maxY float64
}

func (b box) overlaps(o box) bool {
	return b.minX <= o.maxX && b.maxX >= o.minX &&
		b.minY <= o.maxY && b.maxY >= o.minY
}

// bodyBox is the player's hittable area; Pos is at the feet.
func bodyBox(s *CombatState) box {
	return box{
		minX: s.Pos.X - CombatBodyWidth/2,
		maxX: s.Pos.X + CombatBodyWidth/2,
		minY: s.Pos.Y - CombatBodyHeight,
		maxY: s.Pos.Y,
	}
}

// attackBox extends from the attacker's facing edge by the reach of
// the attack.
func attackBox(s *CombatState, kind action.ID) box {
	reach := CombatPunchReach
	if kind == action.Kick {
		reach = CombatKickReach
	}

	body := bodyBox(s)
	if s.Facing > 0 {
		return box{
			minX: body.maxX,
			maxX: body.maxX + reach,
			minY: body.minY,
			maxY: body.maxY,
		}
	}
	return box{
		minX: body.minX - reach,
		maxX: body.minX,
		minY: body.minY,
		maxY: body.maxY,
	}
}

// resolveHits lets every active, unlanded attack test against every
// other live body and applies the outcome to the first victim found.
func (c *Combat) resolveHits(w *World) {
	now := w.Now

	for _, attacker := range w.Players {
		if !attacker.Alive {
			continue
		}
		as := attacker.Combat
		if !as.Attacking(now) || as.AttackLanded {
			continue
		}

		hit := attackBox(as, as.Attack)
		for _, victim := range w.Players {
			if victim.ID == attacker.ID || !victim.Alive {
				continue
			}
			vs := victim.Combat
			if !hit.overlaps(bodyBox(vs)) {
				continue
			}

			c.applyHit(w, attacker, victim)
			break
		}
	}
}

func (c *Combat) applyHit(w *World, attacker *Player, victim *Player) {
	now := w.Now
	as := attacker.Combat
	vs := victim.Combat

	facingAttacker := (as.Pos.X-vs.Pos.X)*float64(vs.Facing) > 0
	if vs.Blocking(now) && facingAttacker {
		vs.Vel.X = float64(as.Facing) * CombatBlockKnockback
		vs.StunUntil = now.Add(CombatStunShort)
		return
	}

	damage := CombatPunchDamage
	if as.Attack == action.Kick {
		damage = CombatKickDamage
	}

	vs.Health -= damage
	vs.Vel.X = float64(as.Facing) * CombatKnockback
	vs.StunUntil = now.Add(CombatStunLong)
	as.AttackLanded = true

	if vs.Health <= 0 {
		vs.Health = 0
		victim.AddScore(-CombatKOPenalty)
		attacker.AddScore(CombatKOBonus)
		victim.Die(now.Add(c.options.RespawnDelay))

		w.Log.Debug().
			Str("attacker", attacker.ID).
			Str("victim", victim.ID).
			Str("attack", as.Attack.String()).
			Msg("combat knockout")
	}
}
