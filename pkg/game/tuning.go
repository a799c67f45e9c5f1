package game

import "time"

// Simulation constants shared by every variant. Durations, world
// sizes and pickup targets live in Options instead so operators can
// tune them per deployment.
const (
	// InputEpsilon is the magnitude below which a movement vector is
	// treated as no input at all.
	InputEpsilon = 0.01

	colorCount = 8
)

// Growth arena.
const (
	ArenaBaseSpeed = 180.0
	ArenaMinSpeed  = 90.0
	// ArenaSpeedPerLength is how much speed a unit of body length
	// costs.
	ArenaSpeedPerLength = 0.08
	// ArenaTurnRate bounds how fast a head can turn, in radians per
	// second.
	ArenaTurnRate = 4.5

	ArenaStartLength     = 60.0
	ArenaMinLength       = 30.0
	ArenaMaxLength       = 1500.0
	ArenaGrowthPerValue  = 12.0
	ArenaBaseThickness   = 4.0
	ArenaThicknessPerLen = 0.004

	// ArenaSelfSkip is how many leading body points are exempt from
	// self collision; the first few segments always touch the head.
	ArenaSelfSkip = 8
	// ArenaGrabFactor scales head thickness into pickup reach.
	ArenaGrabFactor = 1.5
	// ArenaHeadFactor scales combined thickness into the
	// head-to-head death threshold.
	ArenaHeadFactor = 0.75
	// ArenaBodyFactor scales combined thickness into the
	// head-to-body death threshold.
	ArenaBodyFactor = 0.6

	ArenaPickupRadius  = 8.0
	ArenaPickupValue   = 1
	ArenaSpawnAttempts = 16
	ArenaSpawnClear    = 150.0
	// ArenaScatterSpacing is the gap between pickups dropped from a
	// dead body.
	ArenaScatterSpacing = 30.0
	// ArenaBodySpacing is the point spacing of a freshly built body.
	ArenaBodySpacing = 20.0
	ArenaMinMargin   = 4.0
)

// Maze chase.
const (
	MazeBaseSpeed    = 120.0
	MazeBoostMult    = 1.5
	MazeOvertimeMult = 1.3
	// MazeTurnWindow is how close to a tile center a player must be
	// to turn, as a fraction of tile size.
	MazeTurnWindow = 0.35
	// MazeCatchRadius is the PvP contact distance, as a fraction of
	// tile size.
	MazeCatchRadius    = 0.6
	MazePickupValue    = 1
	MazePowerValue     = 5
	MazePickupRadius   = 6.0
	MazeOvertimeBurst  = 3
	MazePickupRatio    = 0.25
)

// Combat.
const (
	CombatGravity      = 1500.0
	CombatMoveSpeed    = 220.0
	CombatJumpSpeed    = 600.0
	CombatFrictionRate = 9.0

	CombatStageMargin = 40.0
	CombatGroundInset = 50.0
	CombatDropHeight  = 300.0

	CombatBodyWidth  = 28.0
	CombatBodyHeight = 60.0

	CombatPunchDamage = 8
	CombatKickDamage  = 14
	CombatPunchReach  = 30.0
	CombatKickReach   = 45.0

	CombatAttackWindow  = 200 * time.Millisecond
	CombatPunchCooldown = 400 * time.Millisecond
	CombatKickCooldown  = 800 * time.Millisecond
	CombatJumpCooldown  = 150 * time.Millisecond
	CombatBlockDuration = 450 * time.Millisecond
	CombatBlockCooldown = 600 * time.Millisecond
	CombatStunShort     = 250 * time.Millisecond
	CombatStunLong      = 600 * time.Millisecond

	CombatKnockback      = 260.0
	CombatBlockKnockback = 140.0

	CombatKOPenalty = 1
	CombatKOBonus   = 1
)
