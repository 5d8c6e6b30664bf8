package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/protocol"
)

type fakeSender struct {
	events []protocol.Event
	err    error
}

func (f *fakeSender) Emit(ev protocol.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func newTestEngine(userID string, s Sender) *Engine {
	return NewEngine(Options{
		UserID:         userID,
		Sender:         s,
		TypingDebounce: 50 * time.Millisecond,
	})
}

func TestSendWithoutChannelIsNoOp(t *testing.T) {
	e := newTestEngine("userA", nil)
	tempID := e.Send("c1", "hi", "", "")
	assert.Empty(t, tempID)
	assert.Empty(t, e.Store().Messages("c1"))
}

func TestSendWithoutIdentityIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("", sender)
	assert.Empty(t, e.Send("c1", "hi", "", ""))
	assert.Empty(t, sender.events)
	assert.Empty(t, e.Store().Messages("c1"))
}

func TestSendInsertsProvisionalAndFiresOnce(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("userA", sender)

	tempID := e.Send("c1", "hi", "media9", "m0")
	require.NotEmpty(t, tempID)

	// local store gains the entry before any round trip
	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
	assert.True(t, e.Store().FindByTemp(tempID))

	require.Len(t, sender.events, 1)
	send := sender.events[0].(*protocol.MessageSend)
	assert.Equal(t, tempID, send.TempID)
	assert.Equal(t, "media9", send.MediaID)
	assert.Equal(t, "m0", send.ReplyToID)
}

func TestSendRollsBackOnEmitFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("channel gone")}
	e := newTestEngine("userA", sender)

	assert.Empty(t, e.Send("c1", "hi", "", ""))
	assert.Empty(t, e.Store().Messages("c1"))
}

func TestTempIDsDistinctAcrossSends(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("userA", sender)

	t1 := e.Send("c1", "one", "", "")
	t2 := e.Send("c1", "two", "", "")
	assert.NotEqual(t, t1, t2)
}

// One send, two delivery paths, exactly one store entry.
func TestAckThenBroadcastYieldsOneEntry(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("userA", sender)

	var resolvedTemp, resolvedID string
	e.onResolve = func(tempID, messageID string) {
		resolvedTemp, resolvedID = tempID, messageID
	}

	tempID := e.Send("c1", "hi", "", "")
	m := canonical("m1", "c1")

	e.HandleEvent(&protocol.MessageAck{TempID: tempID, MessageID: "m1", Message: m})
	e.HandleEvent(&protocol.MessageNew{Message: m, TempID: tempID})

	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.False(t, e.Store().FindByTemp(tempID))
	assert.Equal(t, tempID, resolvedTemp)
	assert.Equal(t, "m1", resolvedID)
}

func TestBroadcastThenAckYieldsOneEntry(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("userA", sender)

	tempID := e.Send("c1", "hi", "", "")
	m := canonical("m1", "c1")

	// arrival order is not guaranteed; the broadcast can win the race
	e.HandleEvent(&protocol.MessageNew{Message: m, TempID: tempID})
	e.HandleEvent(&protocol.MessageAck{TempID: tempID, MessageID: "m1", Message: m})

	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.False(t, e.Store().FindByTemp(tempID))
}

func TestRecipientSeesExactlyOneMessage(t *testing.T) {
	e := newTestEngine("userB", &fakeSender{})

	m := canonical("m1", "c1")
	e.HandleEvent(&protocol.MessageNew{Message: m})
	e.HandleEvent(&protocol.MessageNew{Message: m}) // resync overlap

	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.True(t, e.Store().SummaryStale("c1"))
}

func TestReceiptsAdvanceMonotonically(t *testing.T) {
	e := newTestEngine("userA", &fakeSender{})
	e.Store().Prepend(canonical("m1", "c1"))

	e.HandleEvent(&protocol.ReceiptRead{MessageIDs: []string{"m1"}, UserID: "userB"})
	e.HandleEvent(&protocol.ReceiptDelivered{MessageID: "m1", UserID: "userB"})

	assert.Equal(t, models.StatusRead, e.Store().Messages("c1")[0].Status)
}

func TestReceiptReadIdempotent(t *testing.T) {
	e := newTestEngine("userA", &fakeSender{})
	e.Store().Prepend(canonical("m1", "c1"))

	ev := &protocol.ReceiptRead{MessageIDs: []string{"m1"}, UserID: "userB"}
	e.HandleEvent(ev)
	e.HandleEvent(ev)

	assert.Equal(t, models.StatusRead, e.Store().Messages("c1")[0].Status)
}

func TestStaleEditAndDeleteAreNoOps(t *testing.T) {
	e := newTestEngine("userA", &fakeSender{})

	e.HandleEvent(&protocol.MessageEdit{Message: canonical("m9", "c9")})
	e.HandleEvent(&protocol.MessageDelete{MessageID: "m9", ChatID: "c9"})
	assert.Empty(t, e.Store().Messages("c9"))
}

type fakeDirectory struct {
	lastSeen time.Time
	err      error
}

func (f *fakeDirectory) LastSeen(_ context.Context, _ string) (time.Time, error) {
	return f.lastSeen, f.err
}

func TestPresenceFallsBackToDurableLastSeen(t *testing.T) {
	durable := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(Options{
		UserID:    "userA",
		Sender:    &fakeSender{},
		Directory: &fakeDirectory{lastSeen: durable},
	})

	// nothing ephemeral cached: durable wins, reported offline
	p, err := e.Presence(context.Background(), "userB")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.Equal(t, durable, p.LastSeen)

	// a live update takes precedence
	e.HandleEvent(&protocol.PresenceUpdate{UserID: "userB", Online: true, LastSeen: 1700000000})
	p, err = e.Presence(context.Background(), "userB")
	require.NoError(t, err)
	assert.True(t, p.Online)
}

func TestMarkReadEmitsAndAdvancesLocally(t *testing.T) {
	sender := &fakeSender{}
	e := newTestEngine("userB", sender)
	e.Store().Prepend(canonical("m1", "c1"))

	e.MarkRead("c1", []string{"m1"})

	require.Len(t, sender.events, 1)
	read := sender.events[0].(*protocol.MessageRead)
	assert.Equal(t, []string{"m1"}, read.MessageIDs)
	assert.Equal(t, models.StatusRead, e.Store().Messages("c1")[0].Status)
}

type fakeHistory struct {
	pages map[string][]models.Message
}

func (f *fakeHistory) Latest(_ context.Context, chatID string, _ int) ([]models.Message, error) {
	return f.pages[chatID], nil
}

func TestResyncMergesThroughLedger(t *testing.T) {
	e := newTestEngine("userA", &fakeSender{})
	e.HandleEvent(&protocol.MessageNew{Message: canonical("m1", "c1")})

	hist := &fakeHistory{pages: map[string][]models.Message{
		"c1": {canonical("m2", "c1"), canonical("m1", "c1")},
	}}
	require.NoError(t, e.Resync(context.Background(), hist, 50))

	// m1 was already seen live; only m2 is merged
	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 2)
}

func TestResyncAfterLedgerEvictionKeepsSingleEntry(t *testing.T) {
	e := NewEngine(Options{
		UserID:         "userA",
		Sender:         &fakeSender{},
		LedgerCapacity: 4,
		TypingDebounce: 50 * time.Millisecond,
	})
	e.HandleEvent(&protocol.MessageNew{Message: canonical("m1", "c1")})

	// flood the ledger until m1's id is evicted
	for i := 0; i < 8; i++ {
		e.HandleEvent(&protocol.MessageNew{Message: canonical(fmt.Sprintf("x%d", i), "c2")})
	}

	hist := &fakeHistory{pages: map[string][]models.Message{
		"c1": {canonical("m1", "c1")},
	}}
	require.NoError(t, e.Resync(context.Background(), hist, 50))

	msgs := e.Store().Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
}
