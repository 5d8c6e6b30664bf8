package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := []Event{
		&MessageSend{ChatID: "c1", Body: "hi", TempID: "t1"},
		&MessageAck{TempID: "t1", MessageID: "m1", Message: models.Message{ID: "m1", ChatID: "c1"}},
		&MessageNew{Message: models.Message{ID: "m1", ChatID: "c1"}, TempID: "t1"},
		&MessageEdit{Message: models.Message{ID: "m1", Body: "edited"}},
		&MessageDelete{MessageID: "m1", ChatID: "c1"},
		&MessageRead{ChatID: "c1", MessageIDs: []string{"m1", "m2"}},
		&ReceiptDelivered{MessageID: "m1", UserID: "u2"},
		&ReceiptRead{MessageIDs: []string{"m1"}, UserID: "u2"},
		&TypingStart{ChatID: "c1"},
		&TypingStop{ChatID: "c1"},
		&TypingUpdate{ChatID: "c1", UserID: "u2", IsTyping: true},
		&ChatUpdated{Chat: models.Chat{ID: "c1", Members: []string{"a", "b"}}},
		&PresenceUpdate{UserID: "u2", Online: true, LastSeen: 1700000000},
		&ErrorEvent{Message: "boom", Code: "persist_failed"},
	}

	for _, ev := range events {
		data, err := Encode(ev)
		require.NoError(t, err, ev.EventType())

		decoded, err := Decode(data)
		require.NoError(t, err, ev.EventType())
		assert.Equal(t, ev.EventType(), decoded.EventType())
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"message:unsend","payload":{}}`))
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"message:send","payload":"nope"}`))
	assert.Error(t, err)
}
