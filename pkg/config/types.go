package config

import (
	"time"

	"github.com/campfire-gg/arcade/pkg/game"
)

type RedisSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ArchiveSettings struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"dbPath"`
}

type LeaderboardSettings struct {
	Redis   RedisSettings   `yaml:"redis"`
	Archive ArchiveSettings `yaml:"archive"`
}

type IngressSettings struct {
	Port int `yaml:"port"`
	// Origins allowed to open websocket connections.
	Origins []string `yaml:"origins"`
	// InputPerSecond caps how many frames one client may push.
	InputPerSecond int `yaml:"inputPerSecond"`
	InputBurst     int `yaml:"inputBurst"`
}

type ArenaSettings struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	TargetPickups  int     `yaml:"targetPickups"`
	RespawnSeconds float64 `yaml:"respawnSeconds"`
}

type MazeSettings struct {
	SetupSeconds    uint    `yaml:"setupSeconds"`
	LiveSeconds     uint    `yaml:"liveSeconds"`
	OvertimeSeconds uint    `yaml:"overtimeSeconds"`
	ResetSeconds    uint    `yaml:"resetSeconds"`
	BoostSeconds    float64 `yaml:"boostSeconds"`
	RespawnSeconds  float64 `yaml:"respawnSeconds"`
}

type CombatSettings struct {
	StageWidth     float64 `yaml:"stageWidth"`
	StageHeight    float64 `yaml:"stageHeight"`
	RoundSeconds   uint    `yaml:"roundSeconds"`
	RespawnSeconds float64 `yaml:"respawnSeconds"`
	MaxHealth      int     `yaml:"maxHealth"`
}

type GameSettings struct {
	// TickRate is simulation steps per second.
	TickRate      int            `yaml:"tickRate"`
	FullSyncEvery int            `yaml:"fullSyncEvery"`
	MaxPlayers    int            `yaml:"maxPlayers"`
	Seed          int64          `yaml:"seed"`
	Arena         ArenaSettings  `yaml:"arena"`
	Maze          MazeSettings   `yaml:"maze"`
	Combat        CombatSettings `yaml:"combat"`
}

type ManagerSettings struct {
	IdleMinutes  uint   `yaml:"idleMinutes"`
	ReapSchedule string `yaml:"reapSchedule"`
}

type Config struct {
	Game        GameSettings        `yaml:"game"`
	Manager     ManagerSettings     `yaml:"manager"`
	Leaderboard LeaderboardSettings `yaml:"leaderboard"`
	Ingress     IngressSettings     `yaml:"ingress"`
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

// Options maps the deployment settings onto the engine's options.
// Zero values keep the engine defaults, so a partial config file only
// has to name what it changes.
func (s GameSettings) Options() game.Options {
	options := game.DefaultOptions()

	if s.TickRate > 0 {
		options.TickInterval = time.Second / time.Duration(s.TickRate)
	}
	if s.FullSyncEvery > 0 {
		options.FullSyncEvery = uint64(s.FullSyncEvery)
	}
	if s.MaxPlayers > 0 {
		options.MaxPlayers = s.MaxPlayers
	}
	options.Seed = s.Seed

	arena := &options.Arena
	if s.Arena.Width > 0 {
		arena.Width = s.Arena.Width
	}
	if s.Arena.Height > 0 {
		arena.Height = s.Arena.Height
	}
	if s.Arena.TargetPickups > 0 {
		arena.TargetPickups = s.Arena.TargetPickups
	}
	if s.Arena.RespawnSeconds > 0 {
		arena.RespawnDelay = seconds(s.Arena.RespawnSeconds)
	}

	maze := &options.Maze
	if s.Maze.SetupSeconds > 0 {
		maze.SetupTime = time.Duration(s.Maze.SetupSeconds) * time.Second
	}
	if s.Maze.LiveSeconds > 0 {
		maze.LiveTime = time.Duration(s.Maze.LiveSeconds) * time.Second
	}
	if s.Maze.OvertimeSeconds > 0 {
		maze.OvertimeTime = time.Duration(s.Maze.OvertimeSeconds) * time.Second
	}
	if s.Maze.ResetSeconds > 0 {
		maze.ResetTime = time.Duration(s.Maze.ResetSeconds) * time.Second
	}
	if s.Maze.BoostSeconds > 0 {
		maze.BoostTime = seconds(s.Maze.BoostSeconds)
	}
	if s.Maze.RespawnSeconds > 0 {
		maze.RespawnDelay = seconds(s.Maze.RespawnSeconds)
	}

	combat := &options.Combat
	if s.Combat.StageWidth > 0 {
		combat.StageWidth = s.Combat.StageWidth
	}
	if s.Combat.StageHeight > 0 {
		combat.StageHeight = s.Combat.StageHeight
	}
	if s.Combat.RoundSeconds > 0 {
		combat.RoundTime = time.Duration(s.Combat.RoundSeconds) * time.Second
	}
	if s.Combat.RespawnSeconds > 0 {
		combat.RespawnDelay = seconds(s.Combat.RespawnSeconds)
	}
	if s.Combat.MaxHealth > 0 {
		combat.MaxHealth = s.Combat.MaxHealth
	}

	return options
}
