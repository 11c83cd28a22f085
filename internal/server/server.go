package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/types"
)

var ErrServerClosed = errors.New("chat server is shutting down")

// ChatServer owns the live side of the process: connected clients, live
// rooms, and the dispatcher and relay that push to them.
type ChatServer struct {
	log        *log.Logger
	stats      stats.StatsProvider
	registry   *Registry
	live       *LiveRooms
	dispatcher *Dispatcher
	relay      *Relay

	mu     sync.Mutex
	closed bool
	pumps  sync.WaitGroup
}

func NewChatServer(logger *log.Logger, su stats.StatsProvider) (*ChatServer, error) {
	for _, name := range []string{
		stats.NumActiveClients,
		stats.NumActiveLiveRooms,
		stats.EventsDelivered,
		stats.EventsDropped,
	} {
		su.RegisterMetric(name)
	}

	registry := NewRegistry()
	dispatcher := NewDispatcher(logger, registry, su)

	return &ChatServer{
		log:        logger,
		stats:      su,
		registry:   registry,
		live:       NewLiveRooms(dispatcher, su),
		dispatcher: dispatcher,
		relay:      NewRelay(logger, dispatcher),
	}, nil
}

func (cs *ChatServer) Dispatcher() *Dispatcher { return cs.dispatcher }

func (cs *ChatServer) Registry() *Registry { return cs.registry }

func (cs *ChatServer) LiveRooms() *LiveRooms { return cs.live }

// Serve registers a client for user on conn and starts its pumps. The
// connection is closed and ErrServerClosed returned during shutdown.
func (cs *ChatServer) Serve(user types.User, conn *websocket.Conn) (*Client, error) {
	c := NewClient(user, conn, cs, cs.log)

	cs.mu.Lock()
	if cs.closed || !cs.addClient(c) {
		cs.mu.Unlock()
		reject(conn)
		return nil, ErrServerClosed
	}
	cs.pumps.Add(2)
	cs.mu.Unlock()

	go func() {
		defer cs.pumps.Done()
		c.Write()
	}()
	go func() {
		defer cs.pumps.Done()
		c.Read()
	}()

	return c, nil
}

// reject tells a connection that arrived during shutdown to come back later
// and closes it.
func reject(conn *websocket.Conn) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if b, err := serializeMessage(ErrServiceUnavailable(0)); err == nil {
		conn.WriteMessage(websocket.TextMessage, b)
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
	conn.Close()
}

func (cs *ChatServer) addClient(c *Client) bool {
	if !cs.registry.Register(c.user.Id, c) {
		return false
	}

	cs.log.Printf("adding connection %s for %q", c.id, c.user.Username)
	cs.stats.Incr(stats.NumActiveClients)
	return true
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.live.LeaveAll(c)
	if cs.registry.Unregister(c) {
		cs.log.Printf("removing connection %s for %q", c.id, c.user.Username)
		cs.stats.Decr(stats.NumActiveClients)
	}
}

// Shutdown stops accepting clients, disconnects the current ones and waits
// for their pumps to exit or ctx to end.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down chat server")
	cs.mu.Lock()
	cs.closed = true
	cs.mu.Unlock()

	for _, c := range cs.registry.Close() {
		c.stopClient()
	}

	done := make(chan struct{})
	go func() {
		cs.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
