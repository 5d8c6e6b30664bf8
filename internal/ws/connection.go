package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/fathima-sithara/realtime-service/internal/hub"
)

// Connection pairs a raw websocket with its hub entry and runs the two pumps.
type Connection struct {
	ws   *websocket.Conn
	conn *hub.Conn
	srv  *Server
}

func newConnection(wsConn *websocket.Conn, conn *hub.Conn, srv *Server) *Connection {
	return &Connection{ws: wsConn, conn: conn, srv: srv}
}

func (c *Connection) readPump(ctx context.Context) {
	defer func() {
		c.srv.hub.Unregister(c.conn)
		c.srv.router.HandleDisconnect(ctx, c.conn)
		_ = c.ws.Close()
	}()
	c.ws.SetReadLimit(c.srv.maxMsgSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.srv.router.HandleEvent(ctx, c.conn, data)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.srv.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case payload, ok := <-c.conn.Send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.srv.writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.srv.writeDeadline))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
