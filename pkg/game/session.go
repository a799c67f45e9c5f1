package game

import (
	"context"
	"runtime/debug"
	"sort"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/endreason"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/protocol"
	"github.com/campfire-gg/arcade/pkg/tick"
	"github.com/campfire-gg/arcade/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Relay delivers session events to a channel's participants. The
// broadcast package provides the wire implementation; tests use
// in-memory fakes.
type Relay interface {
	GameStarted(channel string, snapshot *protocol.Snapshot)
	GameUpdate(channel string, snapshot *protocol.Snapshot)
	GameEnded(channel string, message *protocol.EndedMessage)
	// SendState delivers a personal full snapshot to one
	// participant, bypassing the broadcast stream.
	SendState(channel string, participant string, snapshot *protocol.Snapshot)
}

// ScoreSink receives best scores when players leave or the session
// ends. Implementations must return immediately; the tick loop calls
// this inline.
type ScoreSink interface {
	Submit(v variant.ID, name string, score int)
}

// Deps are the collaborators a session needs, injected by the
// manager.
type Deps struct {
	Relay  Relay
	Scores ScoreSink
	// OnEnd runs after the session has fully stopped, from the
	// session's own goroutine.
	OnEnd func(channel string, reason endreason.ID)
}

// Session is one running minigame bound to a channel. All mutable
// state is owned by the goroutine running Poll; the exported methods
// hand commands to it and wait for the outcome.
type Session struct {
	utils.Session

	ID      string
	Channel string
	Variant variant.ID

	engine  Engine
	options Options
	deps    Deps
	log     zerolog.Logger

	ticker   *tick.Ticker
	commands chan command

	// Actor state below; never touched outside the actor goroutine
	// after Start.
	world       *World
	host        string
	paused      bool
	finished    bool
	spectators  map[string]struct{}
	lastFull    uint64
	forceFull   bool
	lastTouch   time.Time
	colorCursor int32
}

func NewSession(
	ctx context.Context,
	id string,
	channel string,
	v variant.ID,
	engine Engine,
	options Options,
	deps Deps,
) *Session {
	logger := log.With().
		Str("session", id).
		Str("channel", channel).
		Str("variant", v.String()).
		Logger()

	var width, height float64
	switch v {
	case variant.Arena:
		width, height = options.Arena.Width, options.Arena.Height
	case variant.Combat:
		width, height = options.Combat.StageWidth, options.Combat.StageHeight
	}

	world := NewWorld(width, height, options.TickInterval, options.Seed)
	world.Log = logger

	s := &Session{
		Session:    utils.NewSession(ctx),
		ID:         id,
		Channel:    channel,
		Variant:    v,
		engine:     engine,
		options:    options,
		deps:       deps,
		log:        logger,
		commands:   make(chan command),
		world:      world,
		spectators: map[string]struct{}{},
		lastTouch:  time.Now(),
	}
	return s
}

// Start seeds the world, joins the host as the first player, emits
// game:started and hands the session to its goroutine.
func (s *Session) Start(host string, hostName string) {
	w := s.world
	w.Now = time.Now()

	s.engine.Setup(w)
	s.host = host
	s.addPlayer(host, hostName)

	started := s.snapshot(true, false)
	s.lastFull = w.Seq
	s.deps.Relay.GameStarted(s.Channel, started)

	s.ticker = tick.New(s.options.TickInterval)
	go s.Poll()

	s.log.Info().Str("host", host).Msg("session started")
}

// Poll is the session actor: one goroutine owns every mutation, fed
// by the ticker and the command inbox.
func (s *Session) Poll() {
	for {
		select {
		case <-s.Ctx().Done():
			return
		case now := <-s.ticker.C:
			s.handleTick(now)
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		}
	}
}

// handleTick runs one simulation step. A panic ends this session
// alone; every other session keeps running.
func (s *Session) handleTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("tick panicked")
			s.finish(endreason.Error)
		}
	}()

	w := s.world
	w.Seq++
	w.Now = now

	s.engine.Step(w)

	if len(w.Players) == 0 {
		s.finish(endreason.AllPlayersLeft)
		return
	}

	s.broadcastTick()
}

func (s *Session) broadcastTick() {
	w := s.world

	full := s.forceFull || w.TakeFullSyncRequest() ||
		w.Seq-s.lastFull >= s.options.FullSyncEvery
	snapshot := s.snapshot(full, false)
	if full {
		s.lastFull = w.Seq
		s.forceFull = false
	}

	s.deps.Relay.GameUpdate(s.Channel, snapshot)
}

// finish tears the session down exactly once: final scores go to the
// sink, game:ended goes out with a last snapshot, the ticker stops
// and the context is cancelled.
func (s *Session) finish(reason endreason.ID) {
	if s.finished {
		return
	}
	s.finished = true
	w := s.world

	for _, p := range w.Players {
		s.deps.Scores.Submit(s.Variant, p.Name, p.Best)
	}

	scores := s.scoreboard()
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	s.deps.Relay.GameEnded(s.Channel, &protocol.EndedMessage{
		Op:       protocol.EndedOp,
		Session:  s.ID,
		Channel:  s.Channel,
		Reason:   reason.String(),
		Scores:   scores,
		Snapshot: *s.snapshot(true, true),
	})

	s.ticker.Stop()
	s.Cancel()

	s.log.Info().
		Str("reason", reason.String()).
		Uint64("ticks", w.Seq).
		Msg("session ended")

	if s.deps.OnEnd != nil {
		s.deps.OnEnd(s.Channel, reason)
	}
}

// addPlayer creates and spawns a player. Callers have already
// checked capacity and duplicates.
func (s *Session) addPlayer(id string, name string) *Player {
	w := s.world

	if name == "" {
		name = id
	}
	p := NewPlayer(id, name, s.colorCursor%colorCount, time.Now())
	s.colorCursor++

	delete(s.spectators, id)
	w.AddPlayer(p)
	s.engine.OnJoin(w, p)
	s.lastTouch = time.Now()
	return p
}

func (s *Session) removePlayer(p *Player) {
	w := s.world

	s.deps.Scores.Submit(s.Variant, p.Name, p.Best)
	s.engine.OnLeave(w, p)
	w.RemovePlayer(p.ID)
	s.spectators[p.ID] = struct{}{}
	s.lastTouch = time.Now()

	if s.host == p.ID && len(w.Players) > 0 {
		s.host = w.Players[0].ID
		s.log.Info().Str("host", s.host).Msg("host migrated")
	}
}
