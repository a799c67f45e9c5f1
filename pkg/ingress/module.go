package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/campfire-gg/arcade/pkg/broadcast"
	"github.com/campfire-gg/arcade/pkg/config"
	"github.com/campfire-gg/arcade/pkg/game"
	"github.com/campfire-gg/arcade/pkg/game/endreason"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/leaderboard"
	"github.com/campfire-gg/arcade/pkg/manager"
	"github.com/campfire-gg/arcade/pkg/protocol"

	"github.com/fxamacker/cbor/v2"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

const CLIENT_MESSAGE_LIMIT int = 16

// Client is one websocket participant, bound to a single channel for
// the lifetime of the connection.
type Client struct {
	id        string
	name      string
	channel   string
	send      chan []byte
	closeSlow func()
	limiter   *rate.Limiter
}

// Hub is the reference Transport: it keeps a roster of connected
// participants per channel and pushes frames at them. A platform
// embedding the engine replaces this with its own relay.
type Hub struct {
	settings config.IngressSettings
	manager  *manager.Manager
	scores   *leaderboard.Service

	mutex   deadlock.Mutex
	rosters map[string]map[string]*Client
}

var _ broadcast.Transport = (*Hub)(nil)
var _ manager.Membership = (*Hub)(nil)

func NewHub(settings config.IngressSettings) *Hub {
	if settings.InputPerSecond <= 0 {
		settings.InputPerSecond = 60
	}
	if settings.InputBurst <= 0 {
		settings.InputBurst = settings.InputPerSecond / 2
	}
	return &Hub{
		settings: settings,
		rosters:  make(map[string]map[string]*Client),
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	roster, ok := h.rosters[client.channel]
	if !ok {
		roster = make(map[string]*Client)
		h.rosters[client.channel] = roster
	}
	roster[client.id] = client
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	roster, ok := h.rosters[client.channel]
	if !ok {
		return
	}
	if roster[client.id] == client {
		delete(roster, client.id)
	}
	if len(roster) == 0 {
		delete(h.rosters, client.channel)
	}
}

func (h *Hub) BroadcastToChannel(channel string, msg []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, client := range h.rosters[channel] {
		select {
		case client.send <- msg:
		default:
			go client.closeSlow()
		}
	}
}

func (h *Hub) SendToParticipant(channel string, participant string, msg []byte) {
	h.mutex.Lock()
	client, ok := h.rosters[channel][participant]
	h.mutex.Unlock()

	if !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
		go client.closeSlow()
	}
}

func (h *Hub) IsMember(channel string, participant string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	_, ok := h.rosters[channel][participant]
	return ok
}

// NumClients reports how many participants are connected to a
// channel.
func (h *Hub) NumClients(channel string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.rosters[channel])
}

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageBinary, msg)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.settings.Origins,
	})
	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	query := r.URL.Query()
	channel := query.Get("channel")
	id := query.Get("id")
	name := query.Get("name")
	if channel == "" || id == "" {
		c.Close(websocket.StatusPolicyViolation, "channel and id are required")
		return
	}

	agent := useragent.Parse(r.UserAgent())
	log.Info().
		Str("channel", channel).
		Str("id", id).
		Str("browser", agent.Name).
		Str("os", agent.OS).
		Bool("mobile", agent.Mobile).
		Msg("client connected")

	err = h.handleClient(r.Context(), c, channel, id, name)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("client connection failed")
	}
}

func (h *Hub) handleClient(
	ctx context.Context,
	c *websocket.Conn,
	channel string,
	id string,
	name string,
) error {
	client := &Client{
		id:      id,
		name:    name,
		channel: channel,
		send:    make(chan []byte, CLIENT_MESSAGE_LIMIT),
		limiter: rate.NewLimiter(
			rate.Limit(h.settings.InputPerSecond),
			h.settings.InputBurst,
		),
		closeSlow: func() {
			c.Close(
				websocket.StatusPolicyViolation,
				"connection too slow to keep up with messages",
			)
		},
	}

	h.addClient(client)
	defer func() {
		h.removeClient(client)
		// A dropped connection leaves the game, too; otherwise the
		// session simulates a ghost until the reaper gets to it.
		err := h.manager.LeaveGame(channel, id)
		if err != nil && !errors.Is(err, manager.ErrNoSession) {
			log.Debug().Err(err).Str("id", id).Msg("could not leave on disconnect")
		}
	}()

	receive := make(chan []byte)
	go func() {
		defer close(receive)
		for {
			typ, message, err := c.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageBinary {
				continue
			}
			select {
			case receive <- message:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-receive:
			if !ok {
				return nil
			}
			h.dispatch(client, msg)
		case msg := <-client.send:
			err := WriteTimeout(ctx, time.Second*5, c, msg)
			if err != nil {
				log.Info().Str("id", id).Msg("client missed write timeout; disconnecting")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) reject(client *Client, err error) {
	frame, packErr := broadcast.Pack(protocol.ErrorMessage{
		Op:     protocol.ErrorOp,
		Reason: err.Error(),
	})
	if packErr != nil {
		return
	}
	select {
	case client.send <- frame:
	default:
	}
}

func (h *Hub) dispatch(client *Client, msg []byte) {
	var join protocol.JoinMessage
	if err := cbor.Unmarshal(msg, &join); err == nil && join.Op == protocol.JoinOp {
		name := client.name
		if join.Name != "" {
			name = join.Name
		}
		if err := h.manager.JoinGame(client.channel, client.id, name); err != nil {
			h.reject(client, err)
		}
		return
	}

	var input protocol.InputMessage
	if err := cbor.Unmarshal(msg, &input); err == nil && input.Op == protocol.InputOp {
		if !client.limiter.Allow() {
			return
		}
		err := h.manager.HandleInput(client.channel, client.id, input.Input)
		if err != nil && !errors.Is(err, game.ErrNotParticipant) {
			h.reject(client, err)
		}
		return
	}

	var leave protocol.LeaveMessage
	if err := cbor.Unmarshal(msg, &leave); err == nil && leave.Op == protocol.LeaveOp {
		if err := h.manager.LeaveGame(client.channel, client.id); err != nil {
			h.reject(client, err)
		}
		return
	}
}

type startRequest struct {
	Channel string `json:"channel"`
	Host    string `json:"host"`
	Name    string `json:"name"`
	Variant string `json:"variant"`
}

type endRequest struct {
	Channel string `json:"channel"`
}

type pauseRequest struct {
	Channel string `json:"channel"`
	ID      string `json:"id"`
	Paused  bool   `json:"paused"`
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, manager.ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, manager.ErrSessionExists):
		status = http.StatusConflict
	case errors.Is(err, manager.ErrUnknownVariant),
		errors.Is(err, game.ErrBadInput):
		status = http.StatusBadRequest
	case errors.Is(err, manager.ErrNotInChannel),
		errors.Is(err, game.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrSessionFull):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Hub) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var request startRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	session, err := h.manager.StartGame(
		request.Channel,
		request.Host,
		request.Name,
		variant.FromString(request.Variant),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session": session.ID})
}

func (h *Hub) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var request endRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.manager.EndGame(request.Channel, endreason.HostEnded); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (h *Hub) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var request pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.manager.SetPaused(request.Channel, request.ID, request.Paused); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": request.Paused})
}

func (h *Hub) handleState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.manager.GetState(r.URL.Query().Get("channel"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Hub) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	v := variant.FromString(query.Get("variant"))
	if !variant.Valid(v) {
		writeError(w, manager.ErrUnknownVariant)
		return
	}

	limit := 10
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.scores.TopScores(r.Context(), v, limit)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Serve blocks until the context ends or the listener fails.
func (h *Hub) Serve(
	ctx context.Context,
	m *manager.Manager,
	scores *leaderboard.Service,
) error {
	h.manager = m
	h.scores = scores

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/api/start", h.handleStart)
	mux.HandleFunc("/api/end", h.handleEnd)
	mux.HandleFunc("/api/pause", h.handlePause)
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/leaderboard", h.handleLeaderboard)

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", h.settings.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", h.settings.Port).Msg("ingress listening")

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
