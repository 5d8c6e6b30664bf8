package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

// newTempID builds the correlation id for one outgoing send: wall clock plus
// a random fragment, unique enough that a collision within a session is
// negligible.
func newTempID() string {
	return fmt.Sprintf("tmp-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// Send is the optimistic pipeline: it places a provisional copy at the head
// of the thread immediately, then fires the request once. No retries; a
// request lost before the flush leaves the provisional stuck in "sent".
//
// Without an identity or an open channel the call is a silent no-op and
// touches no local state.
func (e *Engine) Send(chatID, body, mediaID, replyToID string) string {
	e.mu.Lock()
	s := e.sender
	e.mu.Unlock()
	if e.userID == "" || s == nil {
		return ""
	}

	tempID := newTempID()
	m := models.Message{
		ChatID:    chatID,
		SenderID:  e.userID,
		Body:      body,
		Status:    models.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
	if mediaID != "" {
		// URL is server-filled; the placeholder only carries the id
		m.Media = &models.Media{ID: mediaID}
	}
	if replyToID != "" {
		m.ReplyTo = &models.ReplyRef{MessageID: replyToID}
	}

	e.store.InsertProvisional(chatID, tempID, m)

	err := s.Emit(&protocol.MessageSend{
		ChatID:    chatID,
		Body:      body,
		MediaID:   mediaID,
		ReplyToID: replyToID,
		TempID:    tempID,
	})
	if err != nil {
		// the channel rejected the frame outright, so no ack can ever come
		e.store.Rollback(tempID)
		e.log.Warnw("send failed", "chat", chatID, "err", err)
		return ""
	}
	return tempID
}
