package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/fathima-sithara/realtime-service/internal/auth"
	"github.com/fathima-sithara/realtime-service/internal/hub"
	"github.com/fathima-sithara/realtime-service/internal/router"
)

const pongWait = 60 * time.Second

type Server struct {
	hub    *hub.Hub
	router *router.Router
	jv     *auth.JWTValidator

	pingInterval  time.Duration
	writeDeadline time.Duration
	maxMsgSize    int64
}

func NewServer(h *hub.Hub, r *router.Router, jv *auth.JWTValidator,
	pingInterval, writeDeadline time.Duration, maxMsgSize int64) *Server {
	return &Server{
		hub: h, router: r, jv: jv,
		pingInterval: pingInterval, writeDeadline: writeDeadline, maxMsgSize: maxMsgSize,
	}
}

// HandleWS is the upgrade handler. Expected URL: /v1/ws?token=<jwt>
func (s *Server) HandleWS() func(*websocket.Conn) {
	return func(wsConn *websocket.Conn) {
		token := wsConn.Query("token")
		if token == "" {
			_ = wsConn.Close()
			return
		}
		userID, err := s.jv.Validate(token)
		if err != nil {
			_ = wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"invalid token","code":"unauthorized"}}`))
			_ = wsConn.Close()
			return
		}

		conn := hub.NewConn(uuid.NewString(), userID)
		s.hub.Register(conn)

		ctx := context.Background()
		s.router.HandleConnect(ctx, conn)

		c := newConnection(wsConn, conn, s)
		go c.writePump()
		c.readPump(ctx)
	}
}
