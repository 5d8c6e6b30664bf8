package client

import (
	"sync"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

// EntryKind tags the two shapes a stored message can take. A provisional
// entry and the canonical message it becomes are the same logical entity,
// correlated by temp id; Resolve swaps one for the other in place.
type EntryKind int

const (
	EntryProvisional EntryKind = iota
	EntryCanonical
)

type Entry struct {
	Kind   EntryKind
	TempID string // set while provisional, cleared on resolve
	Msg    models.Message
}

type thread struct {
	entries      []Entry // newest first
	summaryStale bool
}

// ChatStore is the client's paginated message cache, one thread per chat.
type ChatStore struct {
	mu      sync.Mutex
	threads map[string]*thread
}

func NewChatStore() *ChatStore {
	return &ChatStore{threads: make(map[string]*thread)}
}

func (s *ChatStore) thr(chatID string) *thread {
	t, ok := s.threads[chatID]
	if !ok {
		t = &thread{}
		s.threads[chatID] = t
	}
	return t
}

// InsertProvisional puts the optimistic copy at the head of the thread,
// before any network round trip.
func (s *ChatStore) InsertProvisional(chatID, tempID string, m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thr(chatID)
	t.entries = append([]Entry{{Kind: EntryProvisional, TempID: tempID, Msg: m}}, t.entries...)
}

// Resolve replaces the provisional entry with the canonical message in the
// same position. Reports whether a matching provisional existed.
func (s *ChatStore) Resolve(tempID string, m models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		for i := range t.entries {
			e := &t.entries[i]
			if e.Kind == EntryProvisional && e.TempID == tempID {
				*e = Entry{Kind: EntryCanonical, Msg: m}
				return true
			}
		}
	}
	return false
}

// Rollback drops a provisional entry whose send was determined to have
// failed. Absent temp ids are a no-op.
func (s *ChatStore) Rollback(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		for i := range t.entries {
			e := t.entries[i]
			if e.Kind == EntryProvisional && e.TempID == tempID {
				t.entries = append(t.entries[:i], t.entries[i+1:]...)
				return
			}
		}
	}
}

// Prepend adds a canonical message to the newest end of its thread and
// flags the chat summary for refresh.
func (s *ChatStore) Prepend(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thr(m.ChatID)
	t.entries = append([]Entry{{Kind: EntryCanonical, Msg: m}}, t.entries...)
	t.summaryStale = true
}

// Append adds an older canonical message at the tail; used when merging a
// fetched history page.
func (s *ChatStore) Append(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thr(m.ChatID)
	t.entries = append(t.entries, Entry{Kind: EntryCanonical, Msg: m})
}

// ApplyEdit overwrites the stored message with the full snapshot. Editing a
// message that is not cached is a no-op; the snapshot form keeps this
// idempotent.
func (s *ChatStore) ApplyEdit(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[m.ChatID]
	if !ok {
		return
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.Kind == EntryCanonical && e.Msg.ID == m.ID {
			e.Msg = m
			return
		}
	}
}

// ApplyDelete removes the message if present; already-absent is a no-op.
func (s *ChatStore) ApplyDelete(chatID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatID]
	if !ok {
		return
	}
	for i := range t.entries {
		e := t.entries[i]
		if e.Kind == EntryCanonical && e.Msg.ID == messageID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Advance moves a message forward in the status lattice, never backward.
// The lookup spans all cached chats: a bare receipt does not say which chat
// its message belongs to.
func (s *ChatStore) Advance(messageID string, target models.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(messageID, target)
}

func (s *ChatStore) AdvanceMany(messageIDs []string, target models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range messageIDs {
		s.advanceLocked(id, target)
	}
}

func (s *ChatStore) advanceLocked(messageID string, target models.Status) bool {
	for _, t := range s.threads {
		for i := range t.entries {
			e := &t.entries[i]
			if e.Msg.ID != messageID {
				continue
			}
			if e.Msg.Status.Before(target) {
				e.Msg.Status = target
				return true
			}
			return false
		}
	}
	return false
}

// Contains reports whether a canonical message with this id is cached.
func (s *ChatStore) Contains(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		for _, e := range t.entries {
			if e.Kind == EntryCanonical && e.Msg.ID == messageID {
				return true
			}
		}
	}
	return false
}

// FindByTemp reports whether an unresolved provisional with this temp id
// still exists.
func (s *ChatStore) FindByTemp(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		for _, e := range t.entries {
			if e.Kind == EntryProvisional && e.TempID == tempID {
				return true
			}
		}
	}
	return false
}

// Messages returns a newest-first snapshot of the thread.
func (s *ChatStore) Messages(chatID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Msg
	}
	return out
}

// ChatIDs lists the chats with cached threads.
func (s *ChatStore) ChatIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids
}

func (s *ChatStore) SummaryStale(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatID]
	return ok && t.summaryStale
}

func (s *ChatStore) MarkSummaryFresh(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[chatID]; ok {
		t.summaryStale = false
	}
}
