// Package hub tracks live connections on this instance: every event the
// router emits goes out through here.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/metrics"
)

// Conn is one websocket session. A user with several devices has several
// Conns registered under the same UserID.
type Conn struct {
	SocketID  string
	UserID    string
	Send      chan []byte
	Connected time.Time

	mu     sync.Mutex
	closed bool
}

func NewConn(socketID, userID string) *Conn {
	return &Conn{
		SocketID:  socketID,
		UserID:    userID,
		Send:      make(chan []byte, 256),
		Connected: time.Now().UTC(),
	}
}

// Close is safe to call more than once; the write pump and the unregister
// path can both reach it.
func (c *Conn) Close() {
	c.mu.Lock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
	c.mu.Unlock()
}

func (c *Conn) push(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		// slow client, drop rather than stall the whole fan-out
		metrics.EventsDropped.Inc()
	}
}

type Hub struct {
	connsByUser map[string]map[*Conn]struct{}
	rooms       map[string]map[*Conn]struct{} // chatID -> conns
	mu          sync.RWMutex

	// optional cross-instance publish hook (redis pub/sub)
	PublishToOtherInstances func(ctx context.Context, channel string, payload []byte) error
}

func New() *Hub {
	return &Hub{
		connsByUser: make(map[string]map[*Conn]struct{}),
		rooms:       make(map[string]map[*Conn]struct{}),
	}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connsByUser[c.UserID]; !ok {
		h.connsByUser[c.UserID] = make(map[*Conn]struct{})
	}
	h.connsByUser[c.UserID][c] = struct{}{}
	metrics.Connections.Inc()
}

func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.connsByUser[c.UserID]; ok {
		if _, in := set[c]; in {
			delete(set, c)
			metrics.Connections.Dec()
		}
		if len(set) == 0 {
			delete(h.connsByUser, c.UserID)
		}
	}
	for chatID, set := range h.rooms {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, chatID)
		}
	}
	c.Close()
}

// JoinChats subscribes the connection to its chat rooms; called once after
// the membership lookup on connect.
func (h *Hub) JoinChats(c *Conn, chatIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range chatIDs {
		if _, ok := h.rooms[id]; !ok {
			h.rooms[id] = make(map[*Conn]struct{})
		}
		h.rooms[id][c] = struct{}{}
	}
}

func (h *Hub) JoinChat(c *Conn, chatID string) {
	h.JoinChats(c, []string{chatID})
}

// SendToConn targets exactly one connection. Used for acks.
func (h *Hub) SendToConn(c *Conn, payload []byte) {
	c.push(payload)
}

// SendToUser fans out to every device of one user.
func (h *Hub) SendToUser(ctx context.Context, userID string, payload []byte) {
	h.mu.RLock()
	set := h.connsByUser[userID]
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.push(payload)
	}
	if h.PublishToOtherInstances != nil {
		_ = h.PublishToOtherInstances(ctx, "user:"+userID, payload)
	}
}

// BroadcastToChat delivers to every connection in the room except the given
// one, and reports which users received at least one copy locally.
func (h *Hub) BroadcastToChat(ctx context.Context, chatID string, payload []byte, except *Conn) []string {
	h.mu.RLock()
	set := h.rooms[chatID]
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		if c == except {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	reached := make(map[string]struct{})
	for _, c := range conns {
		c.push(payload)
		reached[c.UserID] = struct{}{}
	}
	if h.PublishToOtherInstances != nil {
		_ = h.PublishToOtherInstances(ctx, "chat:"+chatID, payload)
	}
	users := make([]string, 0, len(reached))
	for u := range reached {
		users = append(users, u)
	}
	return users
}

// IsOnline reports whether the user has at least one live connection here.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connsByUser[userID]) > 0
}
