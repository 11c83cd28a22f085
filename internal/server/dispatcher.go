package server

import (
	"log"

	"github.com/npezzotti/gosocial/internal/mutation"
	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/types"
)

// Dispatcher pushes events for committed writes to the live clients of
// their recipients. Delivery is at most once per client: there is no
// acknowledgement, no retry and nothing is kept for offline users.
type Dispatcher struct {
	log      *log.Logger
	registry *Registry
	stats    stats.StatsProvider
}

func NewDispatcher(logger *log.Logger, registry *Registry, su stats.StatsProvider) *Dispatcher {
	return &Dispatcher{
		log:      logger,
		registry: registry,
		stats:    su,
	}
}

// ToClients queues e on every client in clients and returns how many
// accepted it.
func (d *Dispatcher) ToClients(clients []*Client, e Event) int {
	if len(clients) == 0 {
		return 0
	}

	msg := EventMessage(e)
	delivered := 0
	for _, c := range clients {
		if c.queueMessage(msg) {
			delivered++
			d.stats.Incr(stats.EventsDelivered)
		} else {
			d.stats.Incr(stats.EventsDropped)
		}
	}

	return delivered
}

func (d *Dispatcher) ToUser(userId int, e Event) int {
	return d.ToClients(d.registry.ConnectionsFor(userId), e)
}

// MessageSent delivers a new message to every participant. The sender's
// own clients get a confirmation instead of the received event.
func (d *Dispatcher) MessageSent(ms mutation.MessageSent) {
	if ms.Created {
		d.ConversationCreated(mutation.ConversationCreated{
			Conversation: ms.Conversation,
			CreatorId:    ms.Message.Sender.Id,
		})
	}

	for _, userId := range ms.ParticipantIds() {
		kind := EventReceiveMessage
		if userId == ms.Message.Sender.Id {
			kind = EventMessageSent
		}
		d.ToUser(userId, Event{Type: kind, Payload: ms.Message})
	}
}

func (d *Dispatcher) ConversationCreated(cc mutation.ConversationCreated) {
	for _, userId := range cc.ParticipantIds() {
		d.ToUser(userId, Event{Type: EventConversationCreated, Payload: cc.Conversation})
	}
}

func (d *Dispatcher) ConversationRead(cr mutation.ConversationRead) {
	payload := MessagesReadPayload{
		ConversationId: cr.ConversationId,
		Reader:         cr.Reader,
		UptoSeqId:      cr.UptoSeqId,
	}
	for _, userId := range cr.ParticipantIds {
		d.ToUser(userId, Event{Type: EventMessagesRead, Payload: payload})
	}
}

// Notification delivers n to its recipient. A nil notification, or one
// whose actor is its recipient, is ignored.
func (d *Dispatcher) Notification(n *types.Notification) {
	if n == nil || n.Actor.Id == n.RecipientId {
		return
	}

	d.ToUser(n.RecipientId, Event{Type: EventNewNotification, Payload: n})
}
