package game

import "time"

type ArenaOptions struct {
	Width         float64
	Height        float64
	TargetPickups int
	RespawnDelay  time.Duration
}

type MazeOptions struct {
	SetupTime    time.Duration
	LiveTime     time.Duration
	OvertimeTime time.Duration
	ResetTime    time.Duration
	BoostTime    time.Duration
	RespawnDelay time.Duration
}

type CombatOptions struct {
	StageWidth   float64
	StageHeight  float64
	RoundTime    time.Duration
	RespawnDelay time.Duration
	MaxHealth    int
}

// Options carries everything about a session an operator might tune.
// Physics constants deliberately stay out; they are part of the game
// design, not the deployment.
type Options struct {
	TickInterval time.Duration
	// FullSyncEvery is the number of ticks between forced full
	// pickup payloads.
	FullSyncEvery uint64
	MaxPlayers    int
	// Seed pins the session's random source; zero seeds from the
	// clock.
	Seed int64

	Arena  ArenaOptions
	Maze   MazeOptions
	Combat CombatOptions
}

func DefaultOptions() Options {
	return Options{
		TickInterval:  50 * time.Millisecond,
		FullSyncEvery: 100,
		MaxPlayers:    16,
		Arena: ArenaOptions{
			Width:         2000,
			Height:        2000,
			TargetPickups: 40,
			RespawnDelay:  3 * time.Second,
		},
		Maze: MazeOptions{
			SetupTime:    5 * time.Second,
			LiveTime:     120 * time.Second,
			OvertimeTime: 30 * time.Second,
			ResetTime:    5 * time.Second,
			BoostTime:    6 * time.Second,
			RespawnDelay: 2 * time.Second,
		},
		Combat: CombatOptions{
			StageWidth:   800,
			StageHeight:  450,
			RoundTime:    99 * time.Second,
			RespawnDelay: 2500 * time.Millisecond,
			MaxHealth:    100,
		},
	}
}
