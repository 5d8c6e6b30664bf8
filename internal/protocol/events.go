package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

// Envelope is the standard wire format for ws messages.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeMessageSend      = "message:send"
	TypeMessageAck       = "message:ack"
	TypeMessageNew       = "message:new"
	TypeMessageEdit      = "message:edit"
	TypeMessageDelete    = "message:delete"
	TypeMessageRead      = "message:read"
	TypeReceiptDelivered = "receipt:delivered"
	TypeReceiptRead      = "receipt:read"
	TypeTypingStart      = "typing:start"
	TypeTypingStop       = "typing:stop"
	TypeTypingUpdate     = "typing:update"
	TypeChatUpdated      = "chat:updated"
	TypePresenceUpdate   = "presence:update"
	TypeError            = "error"
)

// Event is implemented by every protocol payload. The set is closed: Decode
// only produces the types defined in this package, so a switch over Event in
// a dispatcher covers the whole wire surface.
type Event interface {
	EventType() string
}

// MessageSend is the client->server send request. TempID is the sender-local
// correlation id echoed back in the ack.
type MessageSend struct {
	ChatID    string `json:"chat_id"`
	Body      string `json:"body"`
	MediaID   string `json:"media_id,omitempty"`
	ReplyToID string `json:"reply_to_id,omitempty"`
	TempID    string `json:"temp_id"`
}

// MessageAck goes only to the originating connection.
type MessageAck struct {
	TempID    string         `json:"temp_id"`
	MessageID string         `json:"message_id"`
	Message   models.Message `json:"message"`
}

// MessageNew is the broadcast copy. TempID is only meaningful to the sender's
// other devices and is omitted for everyone else.
type MessageNew struct {
	Message models.Message `json:"message"`
	TempID  string         `json:"temp_id,omitempty"`
}

// MessageEdit carries the full updated snapshot, which keeps the operation
// idempotent on the receiving side.
type MessageEdit struct {
	Message models.Message `json:"message"`
}

type MessageDelete struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

// MessageRead is the client->server request to mark messages read.
type MessageRead struct {
	ChatID     string   `json:"chat_id"`
	MessageIDs []string `json:"message_ids"`
}

type ReceiptDelivered struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

type ReceiptRead struct {
	MessageIDs []string `json:"message_ids"`
	UserID     string   `json:"user_id"`
}

type TypingStart struct {
	ChatID string `json:"chat_id"`
}

type TypingStop struct {
	ChatID string `json:"chat_id"`
}

type TypingUpdate struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type ChatUpdated struct {
	Chat models.Chat `json:"chat"`
}

type PresenceUpdate struct {
	UserID   string `json:"user_id"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen"`
}

// ErrorEvent is advisory only; it is not correlated to a specific request.
type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (MessageSend) EventType() string      { return TypeMessageSend }
func (MessageAck) EventType() string       { return TypeMessageAck }
func (MessageNew) EventType() string       { return TypeMessageNew }
func (MessageEdit) EventType() string      { return TypeMessageEdit }
func (MessageDelete) EventType() string    { return TypeMessageDelete }
func (MessageRead) EventType() string      { return TypeMessageRead }
func (ReceiptDelivered) EventType() string { return TypeReceiptDelivered }
func (ReceiptRead) EventType() string      { return TypeReceiptRead }
func (TypingStart) EventType() string      { return TypeTypingStart }
func (TypingStop) EventType() string       { return TypeTypingStop }
func (TypingUpdate) EventType() string     { return TypeTypingUpdate }
func (ChatUpdated) EventType() string      { return TypeChatUpdated }
func (PresenceUpdate) EventType() string   { return TypePresenceUpdate }
func (ErrorEvent) EventType() string       { return TypeError }

// Encode wraps an event in its envelope, ready for the wire.
func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: ev.EventType(), Payload: payload})
}

// Decode parses an envelope into its typed event. Unknown types are an error
// so callers never silently drop a misspelled event name.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return DecodeEnvelope(env)
}

func DecodeEnvelope(env Envelope) (Event, error) {
	var ev Event
	switch env.Type {
	case TypeMessageSend:
		ev = &MessageSend{}
	case TypeMessageAck:
		ev = &MessageAck{}
	case TypeMessageNew:
		ev = &MessageNew{}
	case TypeMessageEdit:
		ev = &MessageEdit{}
	case TypeMessageDelete:
		ev = &MessageDelete{}
	case TypeMessageRead:
		ev = &MessageRead{}
	case TypeReceiptDelivered:
		ev = &ReceiptDelivered{}
	case TypeReceiptRead:
		ev = &ReceiptRead{}
	case TypeTypingStart:
		ev = &TypingStart{}
	case TypeTypingStop:
		ev = &TypingStop{}
	case TypeTypingUpdate:
		ev = &TypingUpdate{}
	case TypeChatUpdated:
		ev = &ChatUpdated{}
	case TypePresenceUpdate:
		ev = &PresenceUpdate{}
	case TypeError:
		ev = &ErrorEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return ev, nil
}
