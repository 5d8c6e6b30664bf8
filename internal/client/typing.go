package client

import (
	"sync"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

const defaultTypingDebounce = 3 * time.Second

// TypingNotifier handles both directions of the typing signal: it debounces
// our own keystrokes into start/stop events, and tracks who else is typing
// with a client-side expiry. Nothing here is persisted.
type TypingNotifier struct {
	emit     func(protocol.Event) error
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer // chatID -> pending stop
	peers  map[string]time.Time   // chatID+userID -> expiry
}

func NewTypingNotifier(emit func(protocol.Event) error, debounce time.Duration) *TypingNotifier {
	if debounce <= 0 {
		debounce = defaultTypingDebounce
	}
	return &TypingNotifier{
		emit:     emit,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		peers:    make(map[string]time.Time),
	}
}

// Keystroke emits typing:start on the first key and arms the inactivity
// timer; further keys just push the timer back.
func (t *TypingNotifier) Keystroke(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[chatID]; ok {
		timer.Reset(t.debounce)
		return
	}
	_ = t.emit(&protocol.TypingStart{ChatID: chatID})
	t.timers[chatID] = time.AfterFunc(t.debounce, func() {
		t.mu.Lock()
		delete(t.timers, chatID)
		t.mu.Unlock()
		_ = t.emit(&protocol.TypingStop{ChatID: chatID})
	})
}

// Stop cancels the pending timer and emits typing:stop right away, e.g.
// when the message is actually sent.
func (t *TypingNotifier) Stop(chatID string) {
	t.mu.Lock()
	timer, ok := t.timers[chatID]
	if ok {
		timer.Stop()
		delete(t.timers, chatID)
	}
	t.mu.Unlock()
	if ok {
		_ = t.emit(&protocol.TypingStop{ChatID: chatID})
	}
}

// Observe records an incoming typing:update for another user.
func (t *TypingNotifier) Observe(chatID, userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := chatID + "/" + userID
	if !isTyping {
		delete(t.peers, key)
		return
	}
	t.peers[key] = time.Now().Add(t.debounce + time.Second)
}

// IsTyping reports whether the peer's typing signal is still fresh. Stale
// entries expire implicitly, covering a lost typing:stop.
func (t *TypingNotifier) IsTyping(chatID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	expiry, ok := t.peers[chatID+"/"+userID]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(t.peers, chatID+"/"+userID)
		return false
	}
	return true
}
