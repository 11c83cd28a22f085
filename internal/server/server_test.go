package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/testutil"
	"github.com/npezzotti/gosocial/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = types.User{Id: 1, Username: "alice"}
	bob   = types.User{Id: 2, Username: "bob"}
)

// newTestChatServer creates a new ChatServer instance for testing purposes
func newTestChatServer(t *testing.T, su *stats.MockStatsUpdater) *ChatServer {
	su.On("RegisterMetric", mock.Anything).Return().Times(4)

	cs, err := NewChatServer(testutil.TestLogger(t), su)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

func newStatsMock() *stats.MockStatsUpdater {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()
	return su
}

// newTestClient returns a client with no connection. Messages queued on it
// stay in its send buffer.
func newTestClient(t *testing.T, user types.User) *Client {
	return &Client{
		id:   uuid.NewString(),
		user: user,
		log:  testutil.TestLogger(t),
		send: make(chan *ServerMessage, 16),
		stop: make(chan struct{}),
	}
}

func receive(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatalf("expected a message for client %s, but none was queued", c.id)
		return nil
	}
}

func TestNewChatServer(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", stats.NumActiveClients).Return().Once()
	su.On("RegisterMetric", stats.NumActiveLiveRooms).Return().Once()
	su.On("RegisterMetric", stats.EventsDelivered).Return().Once()
	su.On("RegisterMetric", stats.EventsDropped).Return().Once()

	logger := testutil.TestLogger(t)
	cs, err := NewChatServer(logger, su)
	assert.NoError(t, err, "expected no error creating ChatServer")
	assert.NotNil(t, cs, "expected ChatServer to be non-nil")
	assert.Equal(t, logger, cs.log, "expected logger to be set")
	assert.NotNil(t, cs.Registry(), "expected registry to be initialized")
	assert.NotNil(t, cs.Dispatcher(), "expected dispatcher to be initialized")
	assert.NotNil(t, cs.LiveRooms(), "expected live rooms to be initialized")
	assert.NotNil(t, cs.relay, "expected relay to be initialized")
}

func TestChatServer_addClient_removeClient(t *testing.T) {
	su := newStatsMock()
	cs := newTestChatServer(t, su)
	c := newTestClient(t, alice)
	c.chatServer = cs

	assert.True(t, cs.addClient(c), "expected client to be added")
	assert.True(t, cs.Registry().IsOnline(alice.Id))
	cs.LiveRooms().Join("stream-1", c)

	cs.removeClient(c)
	assert.False(t, cs.Registry().IsOnline(alice.Id), "expected user to be offline")
	assert.Equal(t, 0, cs.LiveRooms().Len(), "expected live room to be dropped with its last member")

	// removing twice only decrements once
	cs.removeClient(c)
	su.AssertNumberOfCalls(t, "Decr", 2)
}

func TestChatServerShutdown(t *testing.T) {
	t.Run("no clients", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, cs.Shutdown(ctx), "expected successful shutdown without error")
		assert.False(t, cs.addClient(newTestClient(t, alice)), "expected clients to be refused after shutdown")
	})

	t.Run("fails with context deadline exceeded", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		cs.pumps.Add(1)
		defer cs.pumps.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := cs.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "expected context deadline exceeded error")
	})

	t.Run("stops registered clients", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		c := newTestClient(t, alice)
		c.chatServer = cs
		require.True(t, cs.addClient(c))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, cs.Shutdown(ctx))
		assert.False(t, c.queueMessage(NoErrAccepted(1)), "expected stopped client to drop messages")
	})
}

func startWsServer(t *testing.T, cs *ChatServer) *httptest.Server {
	upgrader := websocket.Upgrader{}
	users := map[int]types.User{alice.Id: alice, bob.Id: bob}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.URL.Query().Get("user"))
		user, ok := users[id]
		if !ok {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cs.Serve(user, conn)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server, user types.User) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + strconv.Itoa(user.Id)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "expected websocket dial to succeed")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestChatServer_Serve_Integration(t *testing.T) {
	cs := newTestChatServer(t, newStatsMock())
	srv := startWsServer(t, cs)

	aliceConn := dial(t, srv, alice)
	bobConn := dial(t, srv, bob)
	require.Eventually(t, func() bool {
		return cs.Registry().IsOnline(alice.Id) && cs.Registry().IsOnline(bob.Id)
	}, time.Second, 10*time.Millisecond, "expected both users to come online")

	require.NoError(t, aliceConn.WriteJSON(map[string]any{
		"id":     1,
		"signal": map[string]any{"type": "offer", "to": bob.Id, "payload": map[string]any{"sdp": "v=0"}},
	}))

	ack := readServerMessage(t, aliceConn)
	require.NotNil(t, ack.Response, "expected a response for the signal")
	assert.Equal(t, 1, ack.Id)
	assert.Equal(t, http.StatusAccepted, ack.Response.ResponseCode)

	incoming := readServerMessage(t, bobConn)
	require.NotNil(t, incoming.Event, "expected an event for the callee")
	assert.Equal(t, EventIncomingCall, incoming.Event.Type)
	payload, ok := incoming.Event.Payload.(map[string]any)
	require.True(t, ok, "expected object payload")
	from, _ := payload["from"].(map[string]any)
	assert.Equal(t, "alice", from["username"])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx), "expected clean shutdown")

	bobConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := bobConn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected going away close, got %v", err)
	assert.Equal(t, 0, cs.Registry().Len(), "expected every client to be unregistered")

	lateConn := dial(t, srv, alice)
	rejected := readServerMessage(t, lateConn)
	require.NotNil(t, rejected.Response, "expected a response for a connection made during shutdown")
	assert.Equal(t, http.StatusServiceUnavailable, rejected.Response.ResponseCode)
	_, _, err = lateConn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "expected try again later close, got %v", err)
	assert.False(t, cs.Registry().IsOnline(alice.Id), "expected late client not to be registered")
}
