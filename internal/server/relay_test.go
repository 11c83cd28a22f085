package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_Signal(t *testing.T) {
	tests := []struct {
		signal string
		event  EventType
	}{
		{"offer", EventIncomingCall},
		{"answer", EventCallAnswered},
		{"ice-candidate", EventIceCandidate},
		{"reject", EventCallRejected},
		{"hang-up", EventCallEnded},
	}

	for _, tt := range tests {
		t.Run(tt.signal, func(t *testing.T) {
			d, r := newTestDispatcher(t, newStatsMock())
			relay := NewRelay(d.log, d)
			caller, callee := newTestClient(t, alice), newTestClient(t, bob)
			r.Register(bob.Id, callee)

			payload := json.RawMessage(`{"sdp":"v=0"}`)
			resp := relay.Signal(caller, &ClientMessage{
				BaseMessage: BaseMessage{Id: 9},
				Signal:      &Signal{Type: tt.signal, To: bob.Id, Payload: payload},
			})

			assert.Equal(t, 9, resp.Id)
			assert.Equal(t, http.StatusAccepted, resp.Response.ResponseCode)

			got := receive(t, callee)
			require.NotNil(t, got.Event)
			assert.Equal(t, tt.event, got.Event.Type)
			assert.Equal(t, SignalPayload{From: alice, Payload: payload}, got.Event.Payload)
		})
	}
}

func TestRelay_SignalErrors(t *testing.T) {
	d, r := newTestDispatcher(t, newStatsMock())
	relay := NewRelay(d.log, d)
	caller := newTestClient(t, alice)
	r.Register(alice.Id, caller)

	tests := []struct {
		name   string
		signal *Signal
		code   int
	}{
		{"unknown type", &Signal{Type: "dance", To: bob.Id}, http.StatusBadRequest},
		{"missing target", &Signal{Type: "offer"}, http.StatusBadRequest},
		{"self target", &Signal{Type: "offer", To: alice.Id}, http.StatusBadRequest},
		{"offline target", &Signal{Type: "offer", To: bob.Id}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := relay.Signal(caller, &ClientMessage{BaseMessage: BaseMessage{Id: 1}, Signal: tt.signal})

			assert.Equal(t, tt.code, resp.Response.ResponseCode)
			assert.Empty(t, caller.send, "expected nothing relayed back to the caller")
		})
	}
}

func TestRelay_Typing(t *testing.T) {
	d, r := newTestDispatcher(t, newStatsMock())
	relay := NewRelay(d.log, d)
	typist, reader := newTestClient(t, alice), newTestClient(t, bob)
	r.Register(bob.Id, reader)

	resp := relay.Typing(typist, &ClientMessage{Typing: &Typing{To: bob.Id, ConversationId: "conv"}})
	assert.Nil(t, resp, "expected no response for typing")

	got := receive(t, reader)
	assert.Equal(t, EventTyping, got.Event.Type)
	assert.Equal(t, TypingPayload{From: alice, ConversationId: "conv"}, got.Event.Payload)

	relay.Typing(typist, &ClientMessage{Typing: &Typing{To: bob.Id, Stopped: true}})
	assert.Equal(t, EventStopTyping, receive(t, reader).Event.Type)

	resp = relay.Typing(typist, &ClientMessage{BaseMessage: BaseMessage{Id: 2}, Typing: &Typing{To: alice.Id}})
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.Response.ResponseCode)
}
