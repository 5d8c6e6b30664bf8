// Package api assembles the HTTP surface: health, metrics, the websocket
// upgrade pair, and a small token-guarded REST read surface.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/fathima-sithara/realtime-service/internal/auth"
	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/repository"
)

// PresenceResolver answers the presence lookup. *presence.Resolver satisfies it.
type PresenceResolver interface {
	Resolve(ctx context.Context, userID string) (models.Presence, error)
}

// MessageHistory is the read half of the message repository the history
// endpoint needs.
type MessageHistory interface {
	Latest(ctx context.Context, chatID string, limit int64, before time.Time) ([]*models.Message, error)
}

// ChatMembership gates history reads to chat participants.
type ChatMembership interface {
	Members(ctx context.Context, chatID string) ([]string, error)
}

type Server struct {
	pres  PresenceResolver
	msgs  MessageHistory
	chats ChatMembership
}

func NewApp(wsHandler func(*websocket.Conn), jv *auth.JWTValidator,
	pres PresenceResolver, msgs MessageHistory, chats ChatMembership) *fiber.App {
	app := fiber.New()
	app.Use(fiberlogger.New())

	s := &Server{pres: pres, msgs: msgs, chats: chats}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/v1")

	// the upgrade handler validates its own query token, so the ws pair
	// sits outside the header middleware
	api.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler))

	guard := auth.JWTAuthMiddleware(jv)
	api.Get("/presence/:user_id", guard, s.getPresence)
	api.Get("/chats/:chat_id/messages", guard, s.getLatestMessages)

	return app
}

func (s *Server) getPresence(c *fiber.Ctx) error {
	p, err := s.pres.Resolve(c.Context(), c.Params("user_id"))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(p)
}

func (s *Server) getLatestMessages(c *fiber.Ctx) error {
	caller, _ := c.Locals(auth.LocalsUserKey).(string)
	chatID := c.Params("chat_id")

	members, err := s.chats.Members(c.Context(), chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}
	member := false
	for _, u := range members {
		if u == caller {
			member = true
			break
		}
	}
	if !member {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a chat participant"})
	}

	msgs, err := s.msgs.Latest(c.Context(), chatID, 50, time.Time{})
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"status": "success", "data": msgs})
}
