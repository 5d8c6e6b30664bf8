package hub

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay carries fan-out between service instances over Redis pub/sub.
// Channels are "chat:<chatID>" and "user:<userID>"; the payload is the
// already-encoded protocol frame. Delivery is at-least-once: an instance
// also hears its own publishes, and receiving clients dedup by message id.
type Relay struct {
	client *redis.Client
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewRelay(client *redis.Client, h *Hub, log *zap.SugaredLogger) *Relay {
	h.PublishToOtherInstances = func(ctx context.Context, channel string, payload []byte) error {
		return client.Publish(ctx, channel, payload).Err()
	}
	return &Relay{client: client, hub: h, log: log}
}

// Run blocks, forwarding relayed frames to local connections. Cancel the
// context to stop.
func (r *Relay) Run(ctx context.Context) {
	pubsub := r.client.PSubscribe(ctx, "chat:*", "user:*")
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-pubsub.Channel():
			if !ok {
				r.log.Warn("relay pubsub channel closed")
				return
			}
			payload := []byte(m.Payload)
			switch {
			case strings.HasPrefix(m.Channel, "chat:"):
				r.hub.deliverToChatLocal(strings.TrimPrefix(m.Channel, "chat:"), payload)
			case strings.HasPrefix(m.Channel, "user:"):
				r.hub.deliverToUserLocal(strings.TrimPrefix(m.Channel, "user:"), payload)
			}
		}
	}
}

func (h *Hub) deliverToChatLocal(chatID string, payload []byte) {
	h.mu.RLock()
	set := h.rooms[chatID]
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.push(payload)
	}
}

func (h *Hub) deliverToUserLocal(userID string, payload []byte) {
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
}
