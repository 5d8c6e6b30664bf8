// Package events bridges chat lifecycle events from the external chat
// service (published over NATS) into live chat:updated fan-out.
package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/hub"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

type Subscriber struct {
	nc  *nats.Conn
	hub *hub.Hub
	log *zap.SugaredLogger
	sub *nats.Subscription
}

func NewSubscriber(url string, h *hub.Hub, log *zap.SugaredLogger) (*Subscriber, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, hub: h, log: log}, nil
}

// Run subscribes to the chat-updated subject and forwards full chat
// snapshots to every participant's connections.
func (s *Subscriber) Run(subject string) error {
	sub, err := s.nc.Subscribe(subject, func(m *nats.Msg) {
		var chat models.Chat
		if err := json.Unmarshal(m.Data, &chat); err != nil {
			s.log.Warnw("bad chat event", "err", err)
			return
		}
		payload, err := protocol.Encode(&protocol.ChatUpdated{Chat: chat})
		if err != nil {
			return
		}
		ctx := context.Background()
		for _, userID := range chat.Members {
			s.hub.SendToUser(ctx, userID, payload)
		}
	})
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Subscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.nc.Close()
}
