package ingress

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campfire-gg/arcade/pkg/broadcast"
	"github.com/campfire-gg/arcade/pkg/config"
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/leaderboard"
	"github.com/campfire-gg/arcade/pkg/manager"
	"github.com/campfire-gg/arcade/pkg/protocol"
	"github.com/campfire-gg/arcade/pkg/tiles"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testHub(t *testing.T) (*Hub, *manager.Manager) {
	hub := NewHub(config.IngressSettings{
		Origins:        []string{"*"},
		InputPerSecond: 1000,
		InputBurst:     100,
	})

	maps, err := tiles.Default()
	require.NoError(t, err)

	scores := leaderboard.NewService(
		context.Background(),
		leaderboard.NewMemory(),
		nil,
	)
	t.Cleanup(scores.Close)

	options := manager.DefaultOptions()
	options.Game.TickInterval = 200 * time.Millisecond
	options.Game.Seed = 1
	options.ReapSpec = "@every 1h"

	m := manager.New(context.Background(), options, manager.Deps{
		Relay:   broadcast.New(hub),
		Members: hub,
		Scores:  scores,
		Maps:    maps,
	})
	t.Cleanup(m.Close)

	hub.manager = m
	hub.scores = scores
	return hub, m
}

func testClient(channel string, id string) *Client {
	return &Client{
		id:        id,
		name:      id,
		channel:   channel,
		send:      make(chan []byte, CLIENT_MESSAGE_LIMIT),
		limiter:   rate.NewLimiter(1000, 100),
		closeSlow: func() {},
	}
}

func nextFrame(t *testing.T, client *Client) []byte {
	select {
	case frame := <-client.send:
		inner, err := broadcast.Unpack(frame)
		require.NoError(t, err)
		return inner
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

func TestRoster(t *testing.T) {
	hub, _ := testHub(t)

	ana := testClient("voice-1", "ana")
	bob := testClient("voice-1", "bob")
	eve := testClient("voice-2", "eve")
	hub.addClient(ana)
	hub.addClient(bob)
	hub.addClient(eve)

	assert.True(t, hub.IsMember("voice-1", "ana"))
	assert.True(t, hub.IsMember("voice-1", "bob"))
	assert.False(t, hub.IsMember("voice-1", "eve"))
	assert.Equal(t, 2, hub.NumClients("voice-1"))

	hub.BroadcastToChannel("voice-1", []byte("hello"))
	assert.Len(t, ana.send, 1)
	assert.Len(t, bob.send, 1)
	assert.Len(t, eve.send, 0)

	hub.SendToParticipant("voice-1", "bob", []byte("psst"))
	assert.Len(t, ana.send, 1)
	assert.Len(t, bob.send, 2)

	hub.removeClient(bob)
	assert.False(t, hub.IsMember("voice-1", "bob"))
	assert.Equal(t, 1, hub.NumClients("voice-1"))
}

func TestBroadcastClosesSlowClient(t *testing.T) {
	hub, _ := testHub(t)

	closed := make(chan struct{})
	slow := testClient("voice-1", "slow")
	slow.closeSlow = func() { close(closed) }
	hub.addClient(slow)

	for i := 0; i < CLIENT_MESSAGE_LIMIT; i++ {
		hub.BroadcastToChannel("voice-1", []byte("frame"))
	}
	// The buffer is full; the next frame marks the client too slow.
	hub.BroadcastToChannel("voice-1", []byte("frame"))

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("slow client was never closed")
	}
}

func TestDispatchJoin(t *testing.T) {
	hub, m := testHub(t)

	host := testClient("voice-1", "host")
	hub.addClient(host)

	_, err := m.StartGame("voice-1", "host", "Host", variant.Arena)
	require.NoError(t, err)

	bob := testClient("voice-1", "bob")
	hub.addClient(bob)

	frame, err := cbor.Marshal(protocol.JoinMessage{
		Op:      protocol.JoinOp,
		Channel: "voice-1",
		Name:    "Bob",
	})
	require.NoError(t, err)
	hub.dispatch(bob, frame)

	// The joiner's first frame is a personal full snapshot.
	var update protocol.UpdateMessage
	require.NoError(t, cbor.Unmarshal(nextFrame(t, bob), &update))
	require.Equal(t, protocol.UpdateOp, update.Op)
	assert.True(t, update.Snapshot.Pickups.Full)

	ids := []string{}
	for _, p := range update.Snapshot.Players {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "bob")
	assert.Contains(t, ids, "host")
}

func TestDispatchRejects(t *testing.T) {
	hub, _ := testHub(t)

	bob := testClient("voice-1", "bob")
	hub.addClient(bob)

	// No session on the channel; joining is rejected.
	frame, err := cbor.Marshal(protocol.JoinMessage{
		Op:      protocol.JoinOp,
		Channel: "voice-1",
	})
	require.NoError(t, err)
	hub.dispatch(bob, frame)

	var rejection protocol.ErrorMessage
	require.NoError(t, cbor.Unmarshal(nextFrame(t, bob), &rejection))
	require.Equal(t, protocol.ErrorOp, rejection.Op)
	assert.Equal(t, manager.ErrNoSession.Error(), rejection.Reason)
}

func TestInputRateLimit(t *testing.T) {
	hub, m := testHub(t)

	host := testClient("voice-1", "host")
	host.limiter = rate.NewLimiter(1, 2)
	hub.addClient(host)

	_, err := m.StartGame("voice-1", "host", "Host", variant.Arena)
	require.NoError(t, err)

	frame, err := cbor.Marshal(protocol.InputMessage{
		Op:      protocol.InputOp,
		Channel: "voice-1",
		Input:   protocol.Input{MoveX: 1},
	})
	require.NoError(t, err)

	// Burst allows two; the rest of the flood is dropped without
	// closing the connection.
	for i := 0; i < 20; i++ {
		hub.dispatch(host, frame)
	}

	snapshot, err := m.GetState("voice-1")
	require.NoError(t, err)
	assert.Equal(t, "voice-1", snapshot.Channel)
}

func TestStartEndpoint(t *testing.T) {
	hub, m := testHub(t)

	host := testClient("voice-1", "host")
	hub.addClient(host)

	body := `{"channel": "voice-1", "host": "host", "name": "Host", "variant": "maze"}`
	recorder := httptest.NewRecorder()
	hub.handleStart(recorder, httptest.NewRequest("POST", "/api/start", strings.NewReader(body)))
	require.Equal(t, 201, recorder.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response["session"])

	// Starting twice conflicts.
	recorder = httptest.NewRecorder()
	hub.handleStart(recorder, httptest.NewRequest("POST", "/api/start", strings.NewReader(body)))
	assert.Equal(t, 409, recorder.Code)

	// State round-trips over the admin surface.
	recorder = httptest.NewRecorder()
	hub.handleState(recorder, httptest.NewRequest("GET", "/api/state?channel=voice-1", nil))
	require.Equal(t, 200, recorder.Code)

	var snapshot protocol.Snapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))
	assert.Equal(t, response["session"], snapshot.Session)
	assert.Equal(t, variant.Maze, snapshot.Variant)

	// Ending frees the channel.
	recorder = httptest.NewRecorder()
	hub.handleEnd(recorder, httptest.NewRequest("POST", "/api/end", strings.NewReader(`{"channel": "voice-1"}`)))
	require.Equal(t, 200, recorder.Code)

	deadline := time.Now().Add(time.Second)
	for m.NumSessions() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	recorder = httptest.NewRecorder()
	hub.handleState(recorder, httptest.NewRequest("GET", "/api/state?channel=voice-1", nil))
	assert.Equal(t, 404, recorder.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	hub, _ := testHub(t)

	ctx := context.Background()
	store := leaderboard.NewMemory()
	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "ana", 25))
	require.NoError(t, store.SubmitScore(ctx, variant.Arena, "bob", 12))
	hub.scores = leaderboard.NewService(ctx, store, nil)
	t.Cleanup(hub.scores.Close)

	recorder := httptest.NewRecorder()
	hub.handleLeaderboard(recorder, httptest.NewRequest("GET", "/api/leaderboard?variant=arena&limit=1", nil))
	require.Equal(t, 200, recorder.Code)

	var entries []leaderboard.Entry
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &entries))
	require.Equal(t, []leaderboard.Entry{{Name: "ana", Score: 25}}, entries)

	recorder = httptest.NewRecorder()
	hub.handleLeaderboard(recorder, httptest.NewRequest("GET", "/api/leaderboard?variant=bogus", nil))
	assert.Equal(t, 400, recorder.Code)
}
