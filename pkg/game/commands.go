package game

import (
	"time"

	"github.com/campfire-gg/arcade/pkg/game/endreason"
	"github.com/campfire-gg/arcade/pkg/geom"
	"github.com/campfire-gg/arcade/pkg/protocol"

	"github.com/repeale/fp-go/option"
)

// Commands cross from calling goroutines into the session actor.
// Replies are buffered so the actor never blocks on a caller that
// gave up waiting.
type command interface{}

type joinCmd struct {
	id    string
	name  string
	reply chan error
}

type leaveCmd struct {
	id    string
	reply chan error
}

type inputCmd struct {
	id    string
	input protocol.Input
	reply chan error
}

type stateCmd struct {
	reply chan *protocol.Snapshot
}

type pauseCmd struct {
	id     string
	paused bool
	reply  chan error
}

type idleCmd struct {
	reply chan time.Duration
}

type endCmd struct {
	reason endreason.ID
	reply  chan struct{}
}

// send hands a command to the actor, failing fast once the session
// is gone.
func (s *Session) send(cmd command) error {
	select {
	case s.commands <- cmd:
		return nil
	case <-s.Ctx().Done():
		return ErrSessionEnded
	}
}

// Join adds a participant. Joining twice is a no-op; a spectator who
// left earlier simply comes back as a fresh player.
func (s *Session) Join(id string, name string) error {
	cmd := joinCmd{id: id, name: name, reply: make(chan error, 1)}
	if err := s.send(cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.Ctx().Done():
		return ErrSessionEnded
	}
}

// Leave removes a participant, submitting its best score on the way
// out. Leaving a session you are not part of does nothing.
func (s *Session) Leave(id string) error {
	cmd := leaveCmd{id: id, reply: make(chan error, 1)}
	if err := s.send(cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.Ctx().Done():
		return ErrSessionEnded
	}
}

// HandleInput stages a participant's intent for the next tick.
func (s *Session) HandleInput(id string, input protocol.Input) error {
	cmd := inputCmd{id: id, input: input, reply: make(chan error, 1)}
	if err := s.send(cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.Ctx().Done():
		return ErrSessionEnded
	}
}

// State returns a full snapshot of the current world without
// disturbing the delta stream.
func (s *Session) State() (*protocol.Snapshot, error) {
	cmd := stateCmd{reply: make(chan *protocol.Snapshot, 1)}
	if err := s.send(cmd); err != nil {
		return nil, err
	}
	select {
	case snapshot := <-cmd.reply:
		return snapshot, nil
	case <-s.Ctx().Done():
		return nil, ErrSessionEnded
	}
}

// SetPaused freezes or resumes the tick loop. Only the host may do
// this.
func (s *Session) SetPaused(id string, paused bool) error {
	cmd := pauseCmd{id: id, paused: paused, reply: make(chan error, 1)}
	if err := s.send(cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.Ctx().Done():
		return ErrSessionEnded
	}
}

// IdleFor reports how long the session has gone without any join,
// leave or input.
func (s *Session) IdleFor() (time.Duration, error) {
	cmd := idleCmd{reply: make(chan time.Duration, 1)}
	if err := s.send(cmd); err != nil {
		return 0, err
	}
	select {
	case idle := <-cmd.reply:
		return idle, nil
	case <-s.Ctx().Done():
		return 0, ErrSessionEnded
	}
}

// End stops the session with the given reason. Ending an already
// ended session is a no-op.
func (s *Session) End(reason endreason.ID) error {
	cmd := endCmd{reason: reason, reply: make(chan struct{}, 1)}
	if err := s.send(cmd); err != nil {
		return nil
	}
	select {
	case <-cmd.reply:
		return nil
	case <-s.Ctx().Done():
		return nil
	}
}

func (s *Session) handleCommand(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- s.handleJoin(c.id, c.name)
	case leaveCmd:
		c.reply <- s.handleLeave(c.id)
	case inputCmd:
		c.reply <- s.handleInput(c.id, c.input)
	case stateCmd:
		c.reply <- s.snapshot(true, true)
	case pauseCmd:
		c.reply <- s.handlePause(c.id, c.paused)
	case idleCmd:
		c.reply <- time.Since(s.lastTouch)
	case endCmd:
		s.finish(c.reason)
		c.reply <- struct{}{}
	}
}

func (s *Session) handleJoin(id string, name string) error {
	w := s.world

	if found := w.FindPlayer(id); opt.IsSome(found) {
		return nil
	}
	if len(w.Players) >= s.options.MaxPlayers {
		return ErrSessionFull
	}

	s.addPlayer(id, name)

	// The joiner gets the world immediately; everyone else's mirror
	// is refreshed by forcing the next broadcast full.
	s.forceFull = true
	s.deps.Relay.SendState(s.Channel, id, s.snapshot(true, true))

	s.log.Info().Str("player", id).Msg("player joined")
	return nil
}

func (s *Session) handleLeave(id string) error {
	w := s.world

	found := w.FindPlayer(id)
	if opt.IsNone(found) {
		delete(s.spectators, id)
		return nil
	}

	s.removePlayer(found.Value)
	s.log.Info().Str("player", id).Msg("player left")

	if len(w.Players) == 0 {
		s.finish(endreason.AllPlayersLeft)
	}
	return nil
}

func (s *Session) handleInput(id string, input protocol.Input) error {
	found := s.world.FindPlayer(id)
	if opt.IsNone(found) {
		return ErrNotParticipant
	}

	// Tiny movement vectors are noise, not intent.
	move := geom.Vec{X: input.MoveX, Y: input.MoveY}
	if move.Magnitude() < InputEpsilon {
		input.MoveX, input.MoveY = 0, 0
	}

	if err := s.engine.ValidateInput(input); err != nil {
		return err
	}

	p := found.Value
	p.Input = input
	p.LastInput = time.Now()
	s.lastTouch = p.LastInput
	return nil
}

func (s *Session) handlePause(id string, paused bool) error {
	if id != s.host {
		return ErrNotHost
	}
	if s.paused == paused {
		return nil
	}

	s.paused = paused
	if paused {
		s.ticker.Pause()
	} else {
		s.ticker.Resume()
	}
	s.lastTouch = time.Now()

	// Let everyone see the pause immediately instead of on the next
	// tick, which may never come. Full and peeked so the pending
	// delta stays intact for the real broadcast stream.
	s.deps.Relay.GameUpdate(s.Channel, s.snapshot(true, true))

	s.log.Info().Bool("paused", paused).Msg("session pause toggled")
	return nil
}
