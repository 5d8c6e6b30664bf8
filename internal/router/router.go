// Package router is the server side of the sync protocol: it takes send
// requests off a connection, persists the canonical message and performs the
// two independent deliveries (ack to the origin, broadcast to the room).
package router

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/hub"
	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/protocol"
	"github.com/fathima-sithara/realtime-service/internal/repository"
)

const replyPreviewLen = 80

// PresenceWriter is the ephemeral presence store. *presence.Store satisfies it.
type PresenceWriter interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// MessageSentPublisher pushes persisted-message events to the notification
// pipeline. Best-effort: a publish failure never fails the send.
type MessageSentPublisher interface {
	PublishMessageSent(ctx context.Context, payload any) error
}

// MediaResolver turns an opaque media id into a fetchable URL. Media upload
// itself belongs to the media service.
type MediaResolver interface {
	Resolve(mediaID string) string
}

type Router struct {
	hub      *hub.Hub
	msgs     repository.MessageRepository
	chats    repository.ChatRepository
	users    repository.UserRepository
	presence PresenceWriter
	producer MessageSentPublisher
	media    MediaResolver
	log      *zap.SugaredLogger
}

func New(h *hub.Hub, msgs repository.MessageRepository, chats repository.ChatRepository,
	users repository.UserRepository, pres PresenceWriter, producer MessageSentPublisher,
	media MediaResolver, log *zap.SugaredLogger) *Router {
	return &Router{
		hub: h, msgs: msgs, chats: chats, users: users,
		presence: pres, producer: producer, media: media, log: log,
	}
}

// HandleConnect runs once per websocket session, after hub registration.
func (r *Router) HandleConnect(ctx context.Context, c *hub.Conn) {
	chatIDs, err := r.chats.ChatsOf(ctx, c.UserID)
	if err != nil {
		r.log.Warnw("chat membership lookup", "user", c.UserID, "err", err)
	}
	r.hub.JoinChats(c, chatIDs)
	if err := r.presence.SetOnline(ctx, c.UserID); err != nil {
		r.log.Warnw("presence set online", "user", c.UserID, "err", err)
	}
	r.fanPresence(ctx, c.UserID, chatIDs, true, time.Now().UTC())
}

// HandleDisconnect runs after hub unregistration. Presence only flips to
// offline once the last device is gone.
func (r *Router) HandleDisconnect(ctx context.Context, c *hub.Conn) {
	if r.hub.IsOnline(c.UserID) {
		return
	}
	if err := r.presence.SetOffline(ctx, c.UserID); err != nil {
		r.log.Warnw("presence set offline", "user", c.UserID, "err", err)
	}
	if err := r.users.TouchLastSeen(ctx, c.UserID); err != nil {
		r.log.Warnw("touch last seen", "user", c.UserID, "err", err)
	}
	chatIDs, err := r.chats.ChatsOf(ctx, c.UserID)
	if err != nil {
		return
	}
	r.fanPresence(ctx, c.UserID, chatIDs, false, time.Now().UTC())
}

// HandleEvent dispatches one inbound frame from a connection.
func (r *Router) HandleEvent(ctx context.Context, c *hub.Conn, data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		r.log.Debugw("bad frame", "user", c.UserID, "err", err)
		return
	}
	switch e := ev.(type) {
	case *protocol.MessageSend:
		r.handleSend(ctx, c, e)
	case *protocol.MessageRead:
		r.handleRead(ctx, c, e)
	case *protocol.MessageEdit:
		r.handleEdit(ctx, c, e)
	case *protocol.MessageDelete:
		r.handleDelete(ctx, c, e)
	case *protocol.TypingStart:
		r.fanTyping(ctx, c, e.ChatID, true)
	case *protocol.TypingStop:
		r.fanTyping(ctx, c, e.ChatID, false)
	default:
		// server-to-client types arriving inbound are ignored
	}
}

// handleSend persists the canonical message, then performs the two
// deliveries in order: targeted ack, room broadcast. The paths are not
// transactionally coupled; receiving clients dedup by message id.
func (r *Router) handleSend(ctx context.Context, c *hub.Conn, req *protocol.MessageSend) {
	members, err := r.chats.Members(ctx, req.ChatID)
	if err != nil || !contains(members, c.UserID) {
		r.sendError(c, "not a chat participant", "forbidden")
		return
	}

	m := &models.Message{
		ChatID:   req.ChatID,
		SenderID: c.UserID,
		Body:     req.Body,
		Status:   models.StatusSent,
	}
	if req.MediaID != "" {
		m.Media = &models.Media{ID: req.MediaID, URL: r.media.Resolve(req.MediaID)}
	}
	if req.ReplyToID != "" {
		if target, err := r.msgs.Get(ctx, req.ReplyToID); err == nil {
			m.ReplyTo = &models.ReplyRef{
				MessageID: target.ID,
				Preview:   preview(target.Body),
				SenderID:  target.SenderID,
			}
		}
	}

	saved, err := r.msgs.Insert(ctx, m)
	if err != nil {
		// abort both deliveries: no ack, no broadcast
		metrics.PersistFailures.Inc()
		r.log.Errorw("persist message", "chat", req.ChatID, "err", err)
		r.sendError(c, "message could not be saved", "persist_failed")
		return
	}
	metrics.MessagesSent.Inc()

	if payload, err := protocol.Encode(&protocol.MessageAck{
		TempID: req.TempID, MessageID: saved.ID, Message: *saved,
	}); err == nil {
		r.hub.SendToConn(c, payload)
	}

	var reached []string
	if payload, err := protocol.Encode(&protocol.MessageNew{
		Message: *saved, TempID: req.TempID,
	}); err == nil {
		reached = r.hub.BroadcastToChat(ctx, req.ChatID, payload, c)
	}

	if err := r.chats.SetLastMessage(ctx, req.ChatID, saved); err != nil {
		r.log.Warnw("update chat summary", "chat", req.ChatID, "err", err)
	}
	if r.producer != nil {
		if err := r.producer.PublishMessageSent(ctx, saved); err != nil {
			r.log.Warnw("publish message.sent", "msg", saved.ID, "err", err)
		}
	}

	r.markDelivered(ctx, c, saved, reached)
}

// markDelivered advances the message once any recipient other than the
// sender got the broadcast, and tells the sender who.
func (r *Router) markDelivered(ctx context.Context, origin *hub.Conn, m *models.Message, reached []string) {
	advanced := false
	for _, userID := range reached {
		if userID == m.SenderID {
			continue
		}
		if !advanced {
			if err := r.msgs.AdvanceStatus(ctx, m.ID, models.StatusDelivered); err != nil {
				r.log.Warnw("advance status", "msg", m.ID, "err", err)
			}
			advanced = true
		}
		if payload, err := protocol.Encode(&protocol.ReceiptDelivered{
			MessageID: m.ID, UserID: userID,
		}); err == nil {
			r.hub.SendToUser(ctx, m.SenderID, payload)
		}
	}
}

func (r *Router) handleRead(ctx context.Context, c *hub.Conn, req *protocol.MessageRead) {
	if len(req.MessageIDs) == 0 {
		return
	}
	if err := r.msgs.MarkRead(ctx, req.MessageIDs, c.UserID); err != nil {
		r.log.Warnw("mark read", "user", c.UserID, "err", err)
		return
	}
	// receipts go to the senders, grouped per sender
	bySender := make(map[string][]string)
	for _, id := range req.MessageIDs {
		m, err := r.msgs.Get(ctx, id)
		if err != nil {
			continue
		}
		if m.SenderID == c.UserID {
			continue
		}
		bySender[m.SenderID] = append(bySender[m.SenderID], id)
	}
	for sender, ids := range bySender {
		if payload, err := protocol.Encode(&protocol.ReceiptRead{
			MessageIDs: ids, UserID: c.UserID,
		}); err == nil {
			r.hub.SendToUser(ctx, sender, payload)
		}
	}
}

func (r *Router) handleEdit(ctx context.Context, c *hub.Conn, req *protocol.MessageEdit) {
	current, err := r.msgs.Get(ctx, req.Message.ID)
	if err != nil || current.SenderID != c.UserID {
		r.sendError(c, "cannot edit this message", "forbidden")
		return
	}
	updated, err := r.msgs.EditBody(ctx, req.Message.ID, req.Message.Body)
	if err != nil {
		r.sendError(c, "edit failed", "persist_failed")
		return
	}
	if payload, err := protocol.Encode(&protocol.MessageEdit{Message: *updated}); err == nil {
		r.hub.BroadcastToChat(ctx, updated.ChatID, payload, nil)
	}
}

func (r *Router) handleDelete(ctx context.Context, c *hub.Conn, req *protocol.MessageDelete) {
	current, err := r.msgs.Get(ctx, req.MessageID)
	if err != nil {
		// deleting an absent message is a no-op, not an error
		return
	}
	if current.SenderID != c.UserID {
		r.sendError(c, "cannot delete this message", "forbidden")
		return
	}
	if err := r.msgs.Delete(ctx, req.MessageID); err != nil {
		r.sendError(c, "delete failed", "persist_failed")
		return
	}
	if payload, err := protocol.Encode(&protocol.MessageDelete{
		MessageID: req.MessageID, ChatID: current.ChatID,
	}); err == nil {
		r.hub.BroadcastToChat(ctx, current.ChatID, payload, nil)
	}
}

func (r *Router) fanTyping(ctx context.Context, c *hub.Conn, chatID string, isTyping bool) {
	payload, err := protocol.Encode(&protocol.TypingUpdate{
		ChatID: chatID, UserID: c.UserID, IsTyping: isTyping,
	})
	if err != nil {
		return
	}
	r.hub.BroadcastToChat(ctx, chatID, payload, c)
}

func (r *Router) fanPresence(ctx context.Context, userID string, chatIDs []string, online bool, lastSeen time.Time) {
	payload, err := protocol.Encode(&protocol.PresenceUpdate{
		UserID: userID, Online: online, LastSeen: lastSeen.Unix(),
	})
	if err != nil {
		return
	}
	for _, chatID := range chatIDs {
		r.hub.BroadcastToChat(ctx, chatID, payload, nil)
	}
}

func (r *Router) sendError(c *hub.Conn, msg, code string) {
	if payload, err := protocol.Encode(&protocol.ErrorEvent{Message: msg, Code: code}); err == nil {
		r.hub.SendToConn(c, payload)
	}
}

func preview(body string) string {
	if len(body) <= replyPreviewLen {
		return body
	}
	// back off to a rune boundary so the cut never splits a multibyte rune
	cut := replyPreviewLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
