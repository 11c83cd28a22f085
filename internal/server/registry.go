package server

import "sync"

// Registry maps user ids to their live clients. A client belongs to at most
// one user for as long as it is registered.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int]map[*Client]struct{}
	owner  map[*Client]int
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int]map[*Client]struct{}),
		owner:  make(map[*Client]int),
	}
}

// Register adds c under userId. Registering the same client again is a
// no-op; registering it under another user moves it. It returns false once
// the registry is closed.
func (r *Registry) Register(userId int, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	if prev, ok := r.owner[c]; ok {
		if prev == userId {
			return true
		}
		r.remove(prev, c)
	}

	set, ok := r.byUser[userId]
	if !ok {
		set = make(map[*Client]struct{})
		r.byUser[userId] = set
	}
	set[c] = struct{}{}
	r.owner[c] = userId

	return true
}

// Unregister removes c and reports whether it was registered. Calling it
// for a client that is already gone is safe.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userId, ok := r.owner[c]
	if !ok {
		return false
	}
	r.remove(userId, c)

	return true
}

func (r *Registry) remove(userId int, c *Client) {
	delete(r.owner, c)
	if set, ok := r.byUser[userId]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.byUser, userId)
		}
	}
}

// ConnectionsFor returns a snapshot of userId's clients. An empty result
// means the user is offline. Clients in the snapshot may close at any time.
func (r *Registry) ConnectionsFor(userId int) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userId]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}

	return clients
}

func (r *Registry) IsOnline(userId int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userId]) > 0
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.owner)
}

func (r *Registry) Users() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]int, 0, len(r.byUser))
	for id := range r.byUser {
		users = append(users, id)
	}

	return users
}

// Close stops the registry from accepting clients and returns the ones
// still registered. They stay registered until they unregister themselves.
func (r *Registry) Close() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	clients := make([]*Client, 0, len(r.owner))
	for c := range r.owner {
		clients = append(clients, c)
	}

	return clients
}
