package manager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/campfire-gg/arcade/pkg/game"
	"github.com/campfire-gg/arcade/pkg/game/endreason"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/protocol"
	"github.com/campfire-gg/arcade/pkg/tiles"
	"github.com/campfire-gg/arcade/pkg/utils"

	"github.com/repeale/fp-go/option"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

var (
	ErrSessionExists  = errors.New("channel already has a running session")
	ErrNoSession      = errors.New("channel has no running session")
	ErrUnknownVariant = errors.New("unknown game variant")
	ErrNotInChannel   = errors.New("not a member of this channel")
)

// Membership answers whether an identity belongs to a channel. The
// transport layer provides it; input is rejected before it ever
// reaches a session if the sender is not in the room.
type Membership interface {
	IsMember(channel string, id string) bool
}

// Event is published whenever a channel's game state flips, so the
// surrounding platform can refresh channel metadata.
type Event struct {
	Channel string
	Session string
	Variant variant.ID
	Running bool
	Reason  string
}

// Deps are the collaborators every session shares. They must be safe
// for concurrent use; sessions on different channels call them from
// their own goroutines.
type Deps struct {
	Relay   game.Relay
	Members Membership
	Scores  game.ScoreSink
	Maps    tiles.Provider
}

type Options struct {
	Game game.Options
	// IdleLimit ends sessions nobody has touched for this long.
	// Zero disables the reaper.
	IdleLimit time.Duration
	// ReapSpec is the cron schedule on which idle sessions are
	// swept.
	ReapSpec string
}

func DefaultOptions() Options {
	return Options{
		Game:      game.DefaultOptions(),
		IdleLimit: 10 * time.Minute,
		ReapSpec:  "@every 1m",
	}
}

// Manager owns the registry of running sessions, one per channel,
// and is the platform's entry point for every game operation.
type Manager struct {
	utils.Session

	options Options
	deps    Deps
	events  *utils.Topic[Event]
	cron    *cron.Cron

	mutex    deadlock.Mutex
	sessions map[string]*game.Session
}

func New(ctx context.Context, options Options, deps Deps) *Manager {
	m := &Manager{
		Session:  utils.NewSession(ctx),
		options:  options,
		deps:     deps,
		events:   utils.NewTopic[Event](),
		cron:     cron.New(),
		sessions: make(map[string]*game.Session),
	}

	if options.IdleLimit > 0 {
		m.cron.AddFunc(options.ReapSpec, m.reapIdle)
	}
	m.cron.Start()

	return m
}

// Subscribe delivers an Event for every session start and end.
func (m *Manager) Subscribe() *utils.Subscriber[Event] {
	return m.events.Subscribe()
}

// NumSessions reports how many sessions are currently running.
func (m *Manager) NumSessions() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}

// FindSession looks up the running session for a channel.
func (m *Manager) FindSession(channel string) opt.Option[*game.Session] {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, ok := m.sessions[channel]; ok {
		return opt.Some(s)
	}
	return opt.None[*game.Session]()
}

func (m *Manager) newSessionID() (string, error) {
	buffer := make([]byte, 8)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

// StartGame creates, registers and starts a session on a channel,
// with the host as its first player.
func (m *Manager) StartGame(
	channel string,
	host string,
	hostName string,
	v variant.ID,
) (*game.Session, error) {
	if !variant.Valid(v) {
		return nil, ErrUnknownVariant
	}
	if m.deps.Members != nil && !m.deps.Members.IsMember(channel, host) {
		return nil, ErrNotInChannel
	}

	var maze *tiles.MazeMap
	if v == variant.Maze {
		fetched, err := m.deps.Maps.GetMazeMap(m.Ctx())
		if err != nil {
			return nil, fmt.Errorf("could not fetch maze map: %w", err)
		}
		maze = fetched
	}

	engine, err := game.NewEngine(v, m.options.Game, maze)
	if err != nil {
		return nil, err
	}

	id, err := m.newSessionID()
	if err != nil {
		return nil, fmt.Errorf("could not generate session id: %w", err)
	}
	session := game.NewSession(
		m.Ctx(),
		id,
		channel,
		v,
		engine,
		m.options.Game,
		game.Deps{
			Relay:  m.deps.Relay,
			Scores: m.deps.Scores,
			OnEnd:  m.sessionEnded,
		},
	)

	m.mutex.Lock()
	if _, ok := m.sessions[channel]; ok {
		m.mutex.Unlock()
		session.Cancel()
		return nil, ErrSessionExists
	}
	m.sessions[channel] = session
	m.mutex.Unlock()

	session.Start(host, hostName)

	m.events.Publish(Event{
		Channel: channel,
		Session: id,
		Variant: v,
		Running: true,
	})

	return session, nil
}

// sessionEnded runs on the session's own goroutine after it has shut
// down.
func (m *Manager) sessionEnded(channel string, reason endreason.ID) {
	m.mutex.Lock()
	session, ok := m.sessions[channel]
	if ok {
		delete(m.sessions, channel)
	}
	m.mutex.Unlock()

	if !ok {
		return
	}

	m.events.Publish(Event{
		Channel: channel,
		Session: session.ID,
		Variant: session.Variant,
		Running: false,
		Reason:  reason.String(),
	})
}

func (m *Manager) JoinGame(channel string, id string, name string) error {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return ErrNoSession
	}
	if m.deps.Members != nil && !m.deps.Members.IsMember(channel, id) {
		return ErrNotInChannel
	}
	return found.Value.Join(id, name)
}

func (m *Manager) LeaveGame(channel string, id string) error {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return ErrNoSession
	}
	return found.Value.Leave(id)
}

func (m *Manager) HandleInput(channel string, id string, input protocol.Input) error {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return ErrNoSession
	}
	if m.deps.Members != nil && !m.deps.Members.IsMember(channel, id) {
		return ErrNotInChannel
	}
	return found.Value.HandleInput(id, input)
}

func (m *Manager) EndGame(channel string, reason endreason.ID) error {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return ErrNoSession
	}
	return found.Value.End(reason)
}

func (m *Manager) GetState(channel string) (*protocol.Snapshot, error) {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return nil, ErrNoSession
	}
	return found.Value.State()
}

// SetPaused freezes or resumes a channel's session on behalf of its
// host.
func (m *Manager) SetPaused(channel string, id string, paused bool) error {
	found := m.FindSession(channel)
	if opt.IsNone(found) {
		return ErrNoSession
	}
	return found.Value.SetPaused(id, paused)
}

// reapIdle ends sessions that have gone quiet. It runs on the cron
// goroutine; session calls are safe from any goroutine.
func (m *Manager) reapIdle() {
	m.mutex.Lock()
	sessions := make([]*game.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mutex.Unlock()

	for _, session := range sessions {
		idle, err := session.IdleFor()
		if err != nil {
			continue
		}
		if idle < m.options.IdleLimit {
			continue
		}

		log.Info().
			Str("session", session.ID).
			Str("channel", session.Channel).
			Dur("idle", idle).
			Msg("reaping idle session")
		session.End(endreason.IdleTimeout)
	}
}

// Close ends every session and stops the reaper. Safe to call more
// than once.
func (m *Manager) Close() {
	m.cron.Stop()

	m.mutex.Lock()
	sessions := make([]*game.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mutex.Unlock()

	for _, session := range sessions {
		session.End(endreason.Shutdown)
	}

	m.Cancel()
}
