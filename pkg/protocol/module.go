package protocol

import (
	"math"

	"github.com/campfire-gg/arcade/pkg/game/action"
	"github.com/campfire-gg/arcade/pkg/game/direction"
	"github.com/campfire-gg/arcade/pkg/game/phase"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/geom"

	"github.com/x448/float16"
)

const (
	// Server -> client
	StartedOp int = iota
	UpdateOp
	EndedOp
	// Client -> server
	JoinOp
	InputOp
	LeaveOp
	// Either direction; wraps another message
	PackedOp
	// Server -> client; a rejected operation
	ErrorOp
)

// EventName maps a server op onto the event name the platform shell
// exposes to clients.
func EventName(op int) string {
	switch op {
	case StartedOp:
		return "game:started"
	case UpdateOp:
		return "game:update"
	case EndedOp:
		return "game:ended"
	}
	return ""
}

// Input is one participant's intent for the next tick. Engines read
// the parts they care about: the arena uses the movement vector as a
// desired heading, the maze collapses it onto a grid direction, and
// combat reads the X axis plus the action.
type Input struct {
	MoveX  float64
	MoveY  float64
	Action action.ID
}

// MapInfo describes a maze layout. Clients cache tile geometry per
// fingerprint; the grid itself never travels in snapshots.
type MapInfo struct {
	Name        string
	TileSize    float64
	Width       int
	Height      int
	Fingerprint uint64
}

// WorldInfo describes the playfield extent in world units.
type WorldInfo struct {
	Width  float64
	Height float64
	Map    *MapInfo
}

// PhaseInfo is only present on maze snapshots.
type PhaseInfo struct {
	Phase phase.ID
	Round int
	// Deadline is the unix millisecond timestamp at which the phase
	// ends on its own.
	Deadline int64
}

// RoundInfo is only present on combat snapshots.
type RoundInfo struct {
	// Deadline is the unix millisecond timestamp at which the round
	// timer resets the stage.
	Deadline int64
}

type ArenaView struct {
	// X, Y is the exact head position.
	X       float64
	Y       float64
	Heading float64
	Speed   float64
	// Thickness doubles as the collision radius of the head.
	Thickness float64
	// Body is the down-sampled trail packed by QuantizeBody, head
	// first.
	Body []uint16
}

type MazeView struct {
	X     float64
	Y     float64
	TileX int
	TileY int
	// Facing is the direction the player is currently moving in.
	Facing direction.ID
	// Boosted is set while a power pickup is active. BoostMs is how
	// long the boost has left.
	Boosted bool
	BoostMs int64
}

type CombatView struct {
	X  float64
	Y  float64
	VX float64
	VY float64
	// Facing is -1 when looking left and 1 when looking right.
	Facing    int8
	Health    int
	Grounded  bool
	Attacking bool
	Blocking  bool
	Stunned   bool
	// Attack is the action currently playing out, None otherwise.
	Attack action.ID
}

// PlayerView is one player as it appears on the wire. Exactly one
// variant payload is set.
type PlayerView struct {
	ID    string
	Name  string
	Color int32
	Score int
	Alive bool
	// RespawnMs is how long until the player respawns, 0 while
	// alive.
	RespawnMs int64

	Arena  *ArenaView
	Maze   *MazeView
	Combat *CombatView
}

type PickupView struct {
	ID     uint32
	X      float64
	Y      float64
	Value  int
	Radius float64
	Power  bool
}

// PickupSync carries the pickup set either as a full replacement or
// as a delta against the previous snapshot. Total always holds the
// authoritative count so consumers can detect divergence.
type PickupSync struct {
	Full    bool
	Pickups []PickupView
	Removed []uint32
	Total   int
}

// Snapshot is the authoritative view of one tick.
type Snapshot struct {
	Session string
	Channel string
	Variant variant.ID
	Host    string
	// StartedAt is the unix millisecond timestamp the session began.
	StartedAt int64
	// Seq increases by exactly one per simulated tick.
	Seq    uint64
	Time   int64
	Paused bool
	World  WorldInfo
	Phase  *PhaseInfo
	Round  *RoundInfo

	Players []PlayerView
	Pickups PickupSync
}

// Sent once when a session begins. The snapshot carries the full
// pickup set.
type StartedMessage struct {
	Op       int // StartedOp
	Snapshot Snapshot
}

// Sent every simulated tick.
type UpdateMessage struct {
	Op       int // UpdateOp
	Snapshot Snapshot
}

type ScoreEntry struct {
	ID    string
	Name  string
	Score int
	Best  int
}

// Sent once when a session ends, with the final scoreboard and a
// last look at the world.
type EndedMessage struct {
	Op       int // EndedOp
	Session  string
	Channel  string
	Reason   string
	Scores   []ScoreEntry
	Snapshot Snapshot
}

// Ask to join the running session on a channel.
type JoinMessage struct {
	Op      int // JoinOp
	Channel string
	Name    string
}

// One input frame for the running session on a channel.
type InputMessage struct {
	Op      int // InputOp
	Channel string
	Input   Input
}

// Leave the running session on a channel.
type LeaveMessage struct {
	Op      int // LeaveOp
	Channel string
}

type GenericMessage struct {
	Op int
}

// PackedMessage wraps a deflate-compressed message. Snapshots for
// busy sessions dwarf everything else on the wire; the broadcaster
// wraps anything over its size threshold.
type PackedMessage struct {
	Op   int // PackedOp
	Data []byte
}

// ErrorMessage tells a client why its last operation was rejected.
type ErrorMessage struct {
	Op     int // ErrorOp
	Reason string
}

// Round2 rounds a coordinate to the two decimal places the wire
// format promises.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// MaxBodyPoints bounds the arena trail on the wire.
const MaxBodyPoints = 24

// DownsampleBody reduces a polyline to at most max points. The head
// always survives and the final point is always the exact tail, so
// the rendered trail starts and ends where the simulation says it
// does.
func DownsampleBody(points []geom.Vec, max int) []geom.Vec {
	if len(points) <= max || max < 2 {
		return points
	}

	sampled := make([]geom.Vec, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max-1; i++ {
		sampled = append(sampled, points[int(float64(i)*step)])
	}
	return append(sampled, points[len(points)-1])
}

// QuantizeBody packs a polyline into half-precision floats, two
// values per point. Half floats keep trail points within half a
// world unit of the truth, which is below one pixel at render scale.
func QuantizeBody(points []geom.Vec) []uint16 {
	bits := make([]uint16, 0, len(points)*2)
	for _, p := range points {
		bits = append(
			bits,
			float16.Fromfloat32(float32(p.X)).Bits(),
			float16.Fromfloat32(float32(p.Y)).Bits(),
		)
	}
	return bits
}

// DequantizeBody is the inverse of QuantizeBody.
func DequantizeBody(bits []uint16) []geom.Vec {
	points := make([]geom.Vec, 0, len(bits)/2)
	for i := 0; i+1 < len(bits); i += 2 {
		points = append(points, geom.Vec{
			X: float64(float16.Frombits(bits[i]).Float32()),
			Y: float64(float16.Frombits(bits[i+1]).Float32()),
		})
	}
	return points
}
