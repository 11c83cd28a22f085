package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/npezzotti/gosocial/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for everything a client sends over the
// socket. Exactly one of the pointer fields is set.
type ClientMessage struct {
	BaseMessage
	Signal      *Signal      `json:"signal,omitempty"`
	Typing      *Typing      `json:"typing,omitempty"`
	JoinLive    *LiveRoomRef `json:"join_live,omitempty"`
	LeaveLive   *LiveRoomRef `json:"leave_live,omitempty"`
	LiveComment *LiveComment `json:"live_comment,omitempty"`
}

// Signal is a call setup message. Payload is relayed without inspection.
type Signal struct {
	Type    string          `json:"type"`
	To      int             `json:"to"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Typing struct {
	To             int    `json:"to"`
	ConversationId string `json:"conversation_id,omitempty"`
	Stopped        bool   `json:"stopped,omitempty"`
}

type LiveRoomRef struct {
	StreamId string `json:"stream_id"`
}

type LiveComment struct {
	StreamId string `json:"stream_id"`
	Content  string `json:"content"`
}

type ServerMessage struct {
	BaseMessage
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type EventType string

const (
	EventReceiveMessage      EventType = "receive_message"
	EventMessageSent         EventType = "message_sent_confirmation"
	EventNewNotification     EventType = "new_notification"
	EventMessagesRead        EventType = "messages_read"
	EventConversationCreated EventType = "conversation_created"
	EventTyping              EventType = "typing"
	EventStopTyping          EventType = "stop_typing"
	EventIncomingCall        EventType = "incoming-call"
	EventCallAnswered        EventType = "call-answered"
	EventIceCandidate        EventType = "ice-candidate-received"
	EventCallRejected        EventType = "call-rejected"
	EventCallEnded           EventType = "call-ended"
	EventNewLiveComment      EventType = "new_live_comment"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type SignalPayload struct {
	From    types.User      `json:"from"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type TypingPayload struct {
	From           types.User `json:"from"`
	ConversationId string     `json:"conversation_id,omitempty"`
}

type MessagesReadPayload struct {
	ConversationId string     `json:"conversation_id"`
	Reader         types.User `json:"reader"`
	UptoSeqId      int        `json:"upto_seq_id"`
}

func EventMessage(e Event) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event:       &e,
	}
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func errResponse(id, code int, msg string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        msg,
		},
	}
}

func ErrUserOffline(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "user is not connected")
}

func ErrNotJoined(id int) *ServerMessage {
	return errResponse(id, http.StatusForbidden, "not joined to this stream")
}

func ErrBadRequest(id int, msg string) *ServerMessage {
	return errResponse(id, http.StatusBadRequest, msg)
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := errResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
