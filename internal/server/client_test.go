package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/testutil"
	"github.com/npezzotti/gosocial/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_queueMessage(t *testing.T) {
	t.Run("queues message", func(t *testing.T) {
		c := newTestClient(t, alice)

		ok := c.queueMessage(NoErrAccepted(1))

		assert.True(t, ok, "expected message to be queued")
		msg := receive(t, c)
		assert.Equal(t, 1, msg.Id, "expected queued message id to match")
	})

	t.Run("drops when buffer full", func(t *testing.T) {
		c := newTestClient(t, alice)
		c.send = make(chan *ServerMessage, 1)
		c.send <- &ServerMessage{}

		ok := c.queueMessage(NoErrAccepted(1))

		assert.False(t, ok, "expected message to be dropped")
		assert.Len(t, c.send, 1, "expected buffer to be unchanged")
	})

	t.Run("drops when stopped", func(t *testing.T) {
		c := newTestClient(t, alice)
		c.stopClient()

		ok := c.queueMessage(NoErrAccepted(1))

		assert.False(t, ok, "expected message to be dropped after stop")
		assert.Empty(t, c.send, "expected nothing to be queued")
	})
}

func Test_serializeMessage(t *testing.T) {
	msg := EventMessage(Event{
		Type:    EventTyping,
		Payload: TypingPayload{From: alice, ConversationId: "abc"},
	})

	bytes, err := serializeMessage(msg)
	require.NoError(t, err, "expected no error serializing message")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(bytes, &decoded))
	event, ok := decoded["event"].(map[string]any)
	require.True(t, ok, "expected event object in serialized message")
	assert.Equal(t, "typing", event["type"])
	assert.NotContains(t, decoded, "response", "expected response to be omitted")
}

func Test_stopClient(t *testing.T) {
	c := newTestClient(t, alice)

	c.stopClient()
	assert.NotPanics(t, c.stopClient, "expected second stop to be a no-op")

	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed")
	}
}

func TestClient_handle(t *testing.T) {
	t.Run("join and leave live room", func(t *testing.T) {
		su := newStatsMock()
		cs := newTestChatServer(t, su)
		c := newTestClient(t, alice)
		c.chatServer = cs

		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			JoinLive:    &LiveRoomRef{StreamId: "stream-1"},
		})

		msg := receive(t, c)
		assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
		assert.True(t, cs.live.IsMember("stream-1", c), "expected client to be a member")

		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 2, Timestamp: Now()},
			LeaveLive:   &LiveRoomRef{StreamId: "stream-1"},
		})

		msg = receive(t, c)
		assert.Equal(t, 2, msg.Id)
		assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
		assert.False(t, cs.live.IsMember("stream-1", c), "expected client to have left")
		su.AssertCalled(t, "Incr", stats.NumActiveLiveRooms)
		su.AssertCalled(t, "Decr", stats.NumActiveLiveRooms)
	})

	t.Run("join without stream id", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		c := newTestClient(t, alice)
		c.chatServer = cs

		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 3},
			JoinLive:    &LiveRoomRef{},
		})

		msg := receive(t, c)
		assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode)
		assert.Equal(t, 0, cs.live.Len(), "expected no room to be created")
	})

	t.Run("signal to offline user", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		c := newTestClient(t, alice)
		c.chatServer = cs

		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 4},
			Signal:      &Signal{Type: "offer", To: bob.Id},
		})

		msg := receive(t, c)
		assert.Equal(t, 4, msg.Id)
		assert.Equal(t, http.StatusNotFound, msg.Response.ResponseCode)
	})

	t.Run("typing produces no response", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		c := newTestClient(t, alice)
		c.chatServer = cs

		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 5},
			Typing:      &Typing{To: bob.Id},
		})

		assert.Empty(t, c.send, "expected no response for a valid typing indicator")
	})

	t.Run("empty message", func(t *testing.T) {
		cs := newTestChatServer(t, newStatsMock())
		c := newTestClient(t, alice)
		c.chatServer = cs

		c.handle(&ClientMessage{BaseMessage: BaseMessage{Id: 6}})

		msg := receive(t, c)
		assert.Equal(t, 6, msg.Id)
		assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode)
		assert.Equal(t, "invalid message format", msg.Response.Error)
	})
}

func TestClient_User(t *testing.T) {
	c := NewClient(types.User{Id: 7, Username: "carol"}, nil, nil, nil)

	assert.Equal(t, 7, c.User().Id)
	assert.NotEmpty(t, c.Id(), "expected client id to be generated")
	assert.Equal(t, sendBufferSize, cap(c.send))
}

func TestClient_handleRecoversPanic(t *testing.T) {
	// a client detached from any chat server cannot route live comments
	c := newTestClient(t, alice)

	assert.NotPanics(t, func() {
		c.handle(&ClientMessage{
			BaseMessage: BaseMessage{Id: 8},
			LiveComment: &LiveComment{StreamId: "stream-1", Content: "hi"},
		})
	})

	msg := receive(t, c)
	assert.Equal(t, 8, msg.Id)
	assert.Equal(t, http.StatusInternalServerError, msg.Response.ResponseCode)
}

func TestClient_PushesOnlyPublicProfile(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	private := types.User{
		Id:           alice.Id,
		Username:     alice.Username,
		EmailAddress: "alice@private.example",
		CreatedAt:    &created,
		UpdatedAt:    &created,
	}

	cs := newTestChatServer(t, newStatsMock())
	sender := NewClient(private, nil, cs, testutil.TestLogger(t))
	viewer := newTestClient(t, bob)
	viewer.chatServer = cs
	cs.registry.Register(alice.Id, sender)
	cs.registry.Register(bob.Id, viewer)
	cs.live.Join("stream-1", sender)
	cs.live.Join("stream-1", viewer)

	assert.Equal(t, alice, sender.User(), "expected only id and username to be kept")

	sender.handle(&ClientMessage{
		BaseMessage: BaseMessage{Id: 1},
		LiveComment: &LiveComment{StreamId: "stream-1", Content: "hello"},
	})
	sender.handle(&ClientMessage{
		BaseMessage: BaseMessage{Id: 2},
		Signal:      &Signal{Type: "offer", To: bob.Id},
	})

	for _, want := range []EventType{EventNewLiveComment, EventIncomingCall} {
		msg := receive(t, viewer)
		require.NotNil(t, msg.Event)
		assert.Equal(t, want, msg.Event.Type)

		raw, err := serializeMessage(msg)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "email_address")
		assert.NotContains(t, string(raw), "alice@private.example")
		assert.NotContains(t, string(raw), "created_at")
	}
}
