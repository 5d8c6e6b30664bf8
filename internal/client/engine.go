// Package client is the receiving half of the sync protocol: the optimistic
// send pipeline, the dedup ledger and the reconciliation of server events
// into the local message cache.
package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

// Sender is the outbound half of the realtime channel.
type Sender interface {
	Emit(ev protocol.Event) error
}

// Directory provides the durable last_seen fallback once an ephemeral
// presence record is gone.
type Directory interface {
	LastSeen(ctx context.Context, userID string) (time.Time, error)
}

// History fetches message pages from the REST API; used for the
// reconnect resync pass.
type History interface {
	Latest(ctx context.Context, chatID string, limit int) ([]models.Message, error)
}

type Engine struct {
	userID string
	store  *ChatStore
	ledger *Ledger
	typing *TypingNotifier
	log    *zap.SugaredLogger

	mu        sync.Mutex
	sender    Sender
	presence  map[string]models.Presence
	chats     map[string]models.Chat
	onResolve func(tempID, messageID string)

	directory Directory
}

type Options struct {
	UserID         string
	Sender         Sender
	LedgerCapacity int
	TypingDebounce time.Duration
	Directory      Directory
	OnResolve      func(tempID, messageID string)
	Logger         *zap.SugaredLogger
}

func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	e := &Engine{
		userID:    opts.UserID,
		store:     NewChatStore(),
		ledger:    NewLedger(opts.LedgerCapacity),
		log:       opts.Logger,
		sender:    opts.Sender,
		presence:  make(map[string]models.Presence),
		chats:     make(map[string]models.Chat),
		onResolve: opts.OnResolve,
		directory: opts.Directory,
	}
	e.typing = NewTypingNotifier(e.emit, opts.TypingDebounce)
	return e
}

func (e *Engine) Store() *ChatStore { return e.store }

// SetSender swaps the channel, e.g. after a reconnect. A nil sender means
// no channel: sends become no-ops.
func (e *Engine) SetSender(s Sender) {
	e.mu.Lock()
	e.sender = s
	e.mu.Unlock()
}

func (e *Engine) emit(ev protocol.Event) error {
	e.mu.Lock()
	s := e.sender
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Emit(ev)
}

// HandleEvent applies one server event to local state. Handlers run to
// completion; keep them short so they do not delay the channel.
func (e *Engine) HandleEvent(ev protocol.Event) {
	switch v := ev.(type) {
	case *protocol.MessageAck:
		e.handleAck(v)
	case *protocol.MessageNew:
		e.handleNew(v)
	case *protocol.MessageEdit:
		e.store.ApplyEdit(v.Message)
	case *protocol.MessageDelete:
		e.store.ApplyDelete(v.ChatID, v.MessageID)
	case *protocol.ReceiptDelivered:
		e.store.Advance(v.MessageID, models.StatusDelivered)
	case *protocol.ReceiptRead:
		e.store.AdvanceMany(v.MessageIDs, models.StatusRead)
	case *protocol.TypingUpdate:
		e.typing.Observe(v.ChatID, v.UserID, v.IsTyping)
	case *protocol.PresenceUpdate:
		e.mu.Lock()
		e.presence[v.UserID] = models.Presence{
			UserID:   v.UserID,
			Online:   v.Online,
			LastSeen: time.Unix(v.LastSeen, 0).UTC(),
		}
		e.mu.Unlock()
	case *protocol.ChatUpdated:
		e.mu.Lock()
		e.chats[v.Chat.ID] = v.Chat
		e.mu.Unlock()
		e.store.MarkSummaryFresh(v.Chat.ID)
	case *protocol.ErrorEvent:
		// advisory only, not correlated to any in-flight operation
		e.log.Warnw("server error", "message", v.Message, "code", v.Code)
	default:
		// client-to-server types echoing back are ignored
	}
}

func (e *Engine) handleAck(ack *protocol.MessageAck) {
	if !e.ledger.ShouldProcess(ack.MessageID) {
		return
	}
	if e.store.Resolve(ack.TempID, ack.Message) {
		if e.onResolve != nil {
			e.onResolve(ack.TempID, ack.MessageID)
		}
		return
	}
	// no provisional to resolve (ack after a rollback); keep the message
	e.store.Prepend(ack.Message)
}

func (e *Engine) handleNew(n *protocol.MessageNew) {
	if !e.ledger.ShouldProcess(n.Message.ID) {
		return
	}
	// our own send looping back to another of our devices never carries a
	// local provisional, but guard anyway
	if n.TempID != "" && e.store.Resolve(n.TempID, n.Message) {
		return
	}
	e.store.Prepend(n.Message)
}

// Presence returns the last known presence for a user, falling back to the
// durable last_seen when nothing ephemeral is cached.
func (e *Engine) Presence(ctx context.Context, userID string) (models.Presence, error) {
	e.mu.Lock()
	p, ok := e.presence[userID]
	e.mu.Unlock()
	if ok && p.Online {
		return p, nil
	}
	if e.directory != nil {
		last, err := e.directory.LastSeen(ctx, userID)
		if err == nil {
			return models.Presence{UserID: userID, Online: false, LastSeen: last}, nil
		}
		if !ok {
			return models.Presence{}, err
		}
	}
	return p, nil
}

func (e *Engine) Chat(chatID string) (models.Chat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.chats[chatID]
	return c, ok
}

// MarkRead tells the server these messages were read and advances them
// locally; the server's receipt fan-out goes to the senders.
func (e *Engine) MarkRead(chatID string, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}
	_ = e.emit(&protocol.MessageRead{ChatID: chatID, MessageIDs: messageIDs})
	e.store.AdvanceMany(messageIDs, models.StatusRead)
}

// Keystroke feeds the typing debounce for a chat.
func (e *Engine) Keystroke(chatID string) {
	e.typing.Keystroke(chatID)
}

// IsTyping reports whether another user is currently typing in the chat.
func (e *Engine) IsTyping(chatID, userID string) bool {
	return e.typing.IsTyping(chatID, userID)
}

// Resync refetches the newest page of every cached chat after a reconnect
// and merges it through the same dedup gate live events use.
func (e *Engine) Resync(ctx context.Context, history History, pageSize int) error {
	if history == nil {
		return nil
	}
	for _, chatID := range e.store.ChatIDs() {
		page, err := history.Latest(ctx, chatID, pageSize)
		if err != nil {
			return err
		}
		for _, m := range page {
			if !e.ledger.ShouldProcess(m.ID) {
				continue
			}
			// the ledger is bounded; a stored message whose id was
			// evicted must still merge into exactly one entry
			if e.store.Contains(m.ID) {
				continue
			}
			e.store.Append(m)
		}
	}
	return nil
}
