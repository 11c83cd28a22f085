package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/gosocial/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one live connection. A user with several devices has several
// clients. The send channel is never closed; once stop is closed every
// further queueMessage is dropped.
type Client struct {
	id         string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		id:         uuid.NewString(),
		conn:       conn,
		chatServer: cs,
		log:        l,
		user:       user.Public(),
		send:       make(chan *ServerMessage, sendBufferSize),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Id() string { return c.id }

func (c *Client) User() types.User { return c.user }

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.sendMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.Timestamp = Now()

		c.handle(&msg)
	}
}

func (c *Client) handle(msg *ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("panic handling message from client %s: %v", c.id, r)
			c.queueMessage(ErrInternalError(msg.Id))
		}
	}()

	cs := c.chatServer
	switch {
	case msg.Signal != nil:
		c.queueMessage(cs.relay.Signal(c, msg))
	case msg.Typing != nil:
		if resp := cs.relay.Typing(c, msg); resp != nil {
			c.queueMessage(resp)
		}
	case msg.JoinLive != nil:
		if msg.JoinLive.StreamId == "" {
			c.queueMessage(ErrBadRequest(msg.Id, "stream_id is required"))
			return
		}
		cs.live.Join(msg.JoinLive.StreamId, c)
		c.queueMessage(NoErrOK(msg.Id, map[string]any{"stream_id": msg.JoinLive.StreamId}))
	case msg.LeaveLive != nil:
		cs.live.Leave(msg.LeaveLive.StreamId, c)
		c.queueMessage(NoErrOK(msg.Id, map[string]any{"stream_id": msg.LeaveLive.StreamId}))
	case msg.LiveComment != nil:
		c.queueMessage(cs.live.Comment(c, msg))
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// queueMessage hands msg to the write pump without blocking. It reports
// false when the client is stopped or its buffer is full; the message is
// dropped in both cases.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case <-c.stop:
		return false
	default:
	}

	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for client %s, dropping message", c.id)
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	c.chatServer.removeClient(c)
	c.stopClient()
}
