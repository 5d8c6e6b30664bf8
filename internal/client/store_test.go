package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

func canonical(id, chatID string) models.Message {
	return models.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  "u1",
		Body:      "hello",
		Status:    models.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
}

func TestResolveReplacesInPlace(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m0", "c1"))
	s.InsertProvisional("c1", "t1", models.Message{ChatID: "c1", Body: "hello", Status: models.StatusSent})

	ok := s.Resolve("t1", canonical("m1", "c1"))
	require.True(t, ok)

	// provisional and canonical never coexist after reconciliation
	assert.False(t, s.FindByTemp("t1"))
	assert.True(t, s.Contains("m1"))

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	// same position: head of the thread, where the provisional sat
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m0", msgs[1].ID)
}

func TestResolveUnknownTempID(t *testing.T) {
	s := NewChatStore()
	assert.False(t, s.Resolve("t-missing", canonical("m1", "c1")))
}

func TestRollbackDropsProvisional(t *testing.T) {
	s := NewChatStore()
	s.InsertProvisional("c1", "t1", models.Message{ChatID: "c1", Body: "hello"})
	s.Rollback("t1")
	assert.Empty(t, s.Messages("c1"))

	// rolling back twice is harmless
	s.Rollback("t1")
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))

	assert.True(t, s.Advance("m1", models.StatusRead))
	// delivered after read must not regress
	assert.False(t, s.Advance("m1", models.StatusDelivered))
	assert.Equal(t, models.StatusRead, s.Messages("c1")[0].Status)
}

func TestAdvanceIdempotent(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))

	s.AdvanceMany([]string{"m1"}, models.StatusRead)
	s.AdvanceMany([]string{"m1"}, models.StatusRead)
	assert.Equal(t, models.StatusRead, s.Messages("c1")[0].Status)
}

func TestAdvanceSearchesAllChats(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))
	s.Prepend(canonical("m2", "c2"))

	// a bare receipt does not name its chat
	assert.True(t, s.Advance("m2", models.StatusDelivered))
	assert.Equal(t, models.StatusDelivered, s.Messages("c2")[0].Status)
	assert.Equal(t, models.StatusSent, s.Messages("c1")[0].Status)
}

func TestAdvanceUnknownMessage(t *testing.T) {
	s := NewChatStore()
	assert.False(t, s.Advance("nope", models.StatusRead))
}

func TestApplyEditSnapshot(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))

	edited := canonical("m1", "c1")
	edited.Body = "edited"
	now := time.Now().UTC()
	edited.EditedAt = &now

	s.ApplyEdit(edited)
	got := s.Messages("c1")[0]
	assert.Equal(t, "edited", got.Body)
	require.NotNil(t, got.EditedAt)

	// editing a message we never cached is a no-op
	s.ApplyEdit(canonical("m9", "c9"))
	assert.Empty(t, s.Messages("c9"))
}

func TestApplyDeleteIdempotent(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))

	s.ApplyDelete("c1", "m1")
	assert.Empty(t, s.Messages("c1"))

	s.ApplyDelete("c1", "m1")
	s.ApplyDelete("c9", "m9")
}

func TestPrependMarksSummaryStale(t *testing.T) {
	s := NewChatStore()
	s.Prepend(canonical("m1", "c1"))
	assert.True(t, s.SummaryStale("c1"))

	s.MarkSummaryFresh("c1")
	assert.False(t, s.SummaryStale("c1"))
}
