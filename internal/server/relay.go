package server

import (
	"log"
)

var signalEvents = map[string]EventType{
	"offer":         EventIncomingCall,
	"answer":        EventCallAnswered,
	"ice-candidate": EventIceCandidate,
	"reject":        EventCallRejected,
	"hang-up":       EventCallEnded,
}

// Relay forwards call signaling and typing indicators from one user to the
// clients of another. It keeps no call state and writes nothing.
type Relay struct {
	log        *log.Logger
	dispatcher *Dispatcher
}

func NewRelay(logger *log.Logger, d *Dispatcher) *Relay {
	return &Relay{log: logger, dispatcher: d}
}

// Signal relays msg.Signal to its target and returns the response for the
// sender. An offline target yields a 404 response.
func (r *Relay) Signal(from *Client, msg *ClientMessage) *ServerMessage {
	sig := msg.Signal

	kind, ok := signalEvents[sig.Type]
	if !ok {
		return ErrBadRequest(msg.Id, "unknown signal type")
	}
	if sig.To <= 0 || sig.To == from.user.Id {
		return ErrBadRequest(msg.Id, "invalid signal target")
	}

	delivered := r.dispatcher.ToUser(sig.To, Event{
		Type:    kind,
		Payload: SignalPayload{From: from.user, Payload: sig.Payload},
	})
	if delivered == 0 {
		return ErrUserOffline(msg.Id)
	}

	return NoErrAccepted(msg.Id)
}

// Typing relays a typing indicator. Indicators are fire and forget, so only
// malformed ones get a response.
func (r *Relay) Typing(from *Client, msg *ClientMessage) *ServerMessage {
	t := msg.Typing
	if t.To <= 0 || t.To == from.user.Id {
		return ErrBadRequest(msg.Id, "invalid typing target")
	}

	kind := EventTyping
	if t.Stopped {
		kind = EventStopTyping
	}

	r.dispatcher.ToUser(t.To, Event{
		Type:    kind,
		Payload: TypingPayload{From: from.user, ConversationId: t.ConversationId},
	})

	return nil
}
