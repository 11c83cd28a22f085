package server

import (
	"strings"
	"sync"

	"github.com/npezzotti/gosocial/internal/stats"
	"github.com/npezzotti/gosocial/internal/types"
)

const maxLiveCommentLength = 500

// LiveRooms tracks which clients watch which stream. A room exists while it
// has at least one member and is dropped when the last one leaves.
type LiveRooms struct {
	mu         sync.Mutex
	rooms      map[string]map[*Client]struct{}
	memberOf   map[*Client]map[string]struct{}
	dispatcher *Dispatcher
	stats      stats.StatsProvider
}

func NewLiveRooms(d *Dispatcher, su stats.StatsProvider) *LiveRooms {
	return &LiveRooms{
		rooms:      make(map[string]map[*Client]struct{}),
		memberOf:   make(map[*Client]map[string]struct{}),
		dispatcher: d,
		stats:      su,
	}
}

func (lr *LiveRooms) Join(streamId string, c *Client) {
	lr.mu.Lock()
	room, exists := lr.rooms[streamId]
	if !exists {
		room = make(map[*Client]struct{})
		lr.rooms[streamId] = room
	}
	room[c] = struct{}{}

	joined, ok := lr.memberOf[c]
	if !ok {
		joined = make(map[string]struct{})
		lr.memberOf[c] = joined
	}
	joined[streamId] = struct{}{}
	lr.mu.Unlock()

	if !exists {
		lr.stats.Incr(stats.NumActiveLiveRooms)
	}
}

func (lr *LiveRooms) Leave(streamId string, c *Client) {
	lr.mu.Lock()
	dropped := lr.leave(streamId, c)
	lr.mu.Unlock()

	if dropped {
		lr.stats.Decr(stats.NumActiveLiveRooms)
	}
}

// LeaveAll removes c from every room it joined.
func (lr *LiveRooms) LeaveAll(c *Client) {
	lr.mu.Lock()
	dropped := 0
	for streamId := range lr.memberOf[c] {
		if lr.leave(streamId, c) {
			dropped++
		}
	}
	lr.mu.Unlock()

	for i := 0; i < dropped; i++ {
		lr.stats.Decr(stats.NumActiveLiveRooms)
	}
}

// leave reports whether the room was dropped. lr.mu must be held.
func (lr *LiveRooms) leave(streamId string, c *Client) bool {
	if joined, ok := lr.memberOf[c]; ok {
		delete(joined, streamId)
		if len(joined) == 0 {
			delete(lr.memberOf, c)
		}
	}

	room, ok := lr.rooms[streamId]
	if !ok {
		return false
	}
	if _, member := room[c]; !member {
		return false
	}

	delete(room, c)
	if len(room) == 0 {
		delete(lr.rooms, streamId)
		return true
	}
	return false
}

func (lr *LiveRooms) IsMember(streamId string, c *Client) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	_, ok := lr.rooms[streamId][c]
	return ok
}

func (lr *LiveRooms) Members(streamId string) []*Client {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	room := lr.rooms[streamId]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of rooms with members.
func (lr *LiveRooms) Len() int {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	return len(lr.rooms)
}

func (lr *LiveRooms) Broadcast(streamId string, e Event) int {
	return lr.dispatcher.ToClients(lr.Members(streamId), e)
}

// Comment broadcasts a live comment from c to everyone in the stream,
// c included. Only members may comment.
func (lr *LiveRooms) Comment(c *Client, msg *ClientMessage) *ServerMessage {
	lc := msg.LiveComment
	content := strings.TrimSpace(lc.Content)
	if lc.StreamId == "" || content == "" {
		return ErrBadRequest(msg.Id, "stream_id and content are required")
	}
	if len(content) > maxLiveCommentLength {
		return ErrBadRequest(msg.Id, "comment too long")
	}

	if !lr.IsMember(lc.StreamId, c) {
		return ErrNotJoined(msg.Id)
	}

	lr.Broadcast(lc.StreamId, Event{
		Type: EventNewLiveComment,
		Payload: types.LiveComment{
			StreamId:  lc.StreamId,
			Author:    c.user,
			Content:   content,
			Timestamp: msg.Timestamp,
		},
	})

	return NoErrAccepted(msg.Id)
}
