package client

import (
	"context"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

// Channel is the websocket transport for the engine. One Channel is one
// logical realtime connection; reads happen in a single goroutine so event
// handlers run to completion without interleaving.
type Channel struct {
	conn *websocket.Conn
	mu   sync.Mutex // guards concurrent writers
}

// Dial connects to the realtime endpoint, e.g. ws://host:port/v1/ws.
func Dial(ctx context.Context, endpoint, token string) (*Channel, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Channel{conn: conn}, nil
}

func (ch *Channel) Emit(ev protocol.Event) error {
	payload, err := protocol.Encode(ev)
	if err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.conn.WriteMessage(websocket.TextMessage, payload)
}

// Listen reads frames until the connection drops and feeds them to the
// engine. Run it in its own goroutine; it returns the read error.
func (ch *Channel) Listen(e *Engine) error {
	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := protocol.Decode(data)
		if err != nil {
			continue
		}
		e.HandleEvent(ev)
	}
}

func (ch *Channel) Close() error {
	return ch.conn.Close()
}
