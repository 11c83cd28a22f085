package server

import (
	"testing"

	"github.com/npezzotti/gosocial/internal/mutation"
	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/testutil"
	"github.com/npezzotti/gosocial/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, su *stats.MockStatsUpdater) (*Dispatcher, *Registry) {
	r := NewRegistry()
	return NewDispatcher(testutil.TestLogger(t), r, su), r
}

func TestDispatcher_ToUser(t *testing.T) {
	t.Run("every device receives once", func(t *testing.T) {
		su := newStatsMock()
		d, r := newTestDispatcher(t, su)
		phone, laptop := newTestClient(t, bob), newTestClient(t, bob)
		r.Register(bob.Id, phone)
		r.Register(bob.Id, laptop)

		delivered := d.ToUser(bob.Id, Event{Type: EventTyping})

		assert.Equal(t, 2, delivered)
		for _, c := range []*Client{phone, laptop} {
			assert.Len(t, c.send, 1, "expected exactly one event per device")
			assert.Equal(t, EventTyping, receive(t, c).Event.Type)
		}
		su.AssertNumberOfCalls(t, "Incr", 2)
	})

	t.Run("offline user", func(t *testing.T) {
		su := newStatsMock()
		d, _ := newTestDispatcher(t, su)

		assert.Equal(t, 0, d.ToUser(bob.Id, Event{Type: EventTyping}))
		su.AssertNotCalled(t, "Incr", stats.EventsDelivered)
	})

	t.Run("stopped client counts as dropped", func(t *testing.T) {
		su := newStatsMock()
		d, r := newTestDispatcher(t, su)
		live, stopped := newTestClient(t, bob), newTestClient(t, bob)
		stopped.stopClient()
		r.Register(bob.Id, live)
		r.Register(bob.Id, stopped)

		assert.Equal(t, 1, d.ToUser(bob.Id, Event{Type: EventTyping}))
		su.AssertCalled(t, "Incr", stats.EventsDropped)
	})
}

func TestDispatcher_MessageSent(t *testing.T) {
	d, r := newTestDispatcher(t, newStatsMock())
	sender, recipient := newTestClient(t, alice), newTestClient(t, bob)
	r.Register(alice.Id, sender)
	r.Register(bob.Id, recipient)

	conv := types.Conversation{Id: 3, ExternalId: "conv", Participants: []types.User{alice, bob}}
	message := types.Message{Id: 10, SeqId: 1, ConversationId: "conv", Sender: alice, Type: types.MessageText, Content: "hi"}

	t.Run("existing conversation", func(t *testing.T) {
		d.MessageSent(mutation.MessageSent{Message: message, Conversation: conv})

		got := receive(t, sender)
		assert.Equal(t, EventMessageSent, got.Event.Type, "expected sender to get a confirmation")
		assert.Equal(t, message, got.Event.Payload)
		assert.Empty(t, sender.send)

		got = receive(t, recipient)
		assert.Equal(t, EventReceiveMessage, got.Event.Type)
		assert.Equal(t, message, got.Event.Payload)
		assert.Empty(t, recipient.send)
	})

	t.Run("new conversation is announced first", func(t *testing.T) {
		d.MessageSent(mutation.MessageSent{Message: message, Conversation: conv, Created: true})

		for _, c := range []*Client{sender, recipient} {
			first := receive(t, c)
			require.NotNil(t, first.Event)
			assert.Equal(t, EventConversationCreated, first.Event.Type)
			assert.Equal(t, conv, first.Event.Payload)
			receive(t, c)
			assert.Empty(t, c.send)
		}
	})
}

func TestDispatcher_ConversationRead(t *testing.T) {
	d, r := newTestDispatcher(t, newStatsMock())
	reader, other := newTestClient(t, alice), newTestClient(t, bob)
	r.Register(alice.Id, reader)
	r.Register(bob.Id, other)

	d.ConversationRead(mutation.ConversationRead{
		ConversationId: "conv",
		Reader:         alice,
		UptoSeqId:      4,
		ParticipantIds: []int{alice.Id, bob.Id},
	})

	for _, c := range []*Client{reader, other} {
		got := receive(t, c)
		assert.Equal(t, EventMessagesRead, got.Event.Type)
		assert.Equal(t, MessagesReadPayload{ConversationId: "conv", Reader: alice, UptoSeqId: 4}, got.Event.Payload)
	}
}

func TestDispatcher_Notification(t *testing.T) {
	d, r := newTestDispatcher(t, newStatsMock())
	actor, recipient := newTestClient(t, alice), newTestClient(t, bob)
	r.Register(alice.Id, actor)
	r.Register(bob.Id, recipient)

	t.Run("delivers to recipient only", func(t *testing.T) {
		n := &types.Notification{Id: 1, RecipientId: bob.Id, Actor: alice, Type: types.NotifyLikePost}

		d.Notification(n)

		got := receive(t, recipient)
		assert.Equal(t, EventNewNotification, got.Event.Type)
		assert.Equal(t, n, got.Event.Payload)
		assert.Empty(t, actor.send, "expected actor to receive nothing")
	})

	t.Run("ignores nil and self notifications", func(t *testing.T) {
		d.Notification(nil)
		d.Notification(&types.Notification{RecipientId: alice.Id, Actor: alice})

		assert.Empty(t, actor.send)
		assert.Empty(t, recipient.send)
	})
}
