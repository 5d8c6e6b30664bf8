package models

import "time"

// Status is the delivery state of a message. Ordering matters:
// a message only ever moves forward through sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// Rank returns the position of s in the status lattice, -1 for unknown values.
func (s Status) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Before reports whether s is strictly earlier in the lattice than other.
func (s Status) Before(other Status) bool {
	return s.Rank() < other.Rank()
}

type Media struct {
	ID  string `bson:"id" json:"id"`
	URL string `bson:"url,omitempty" json:"url,omitempty"`
}

// ReplyRef carries a cached preview of the replied-to message so clients can
// render the quote without a second lookup.
type ReplyRef struct {
	MessageID string `bson:"message_id" json:"message_id"`
	Preview   string `bson:"preview,omitempty" json:"preview,omitempty"`
	SenderID  string `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
}

type Reaction struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Message struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	ChatID     string     `bson:"chat_id" json:"chat_id"`
	SenderID   string     `bson:"sender_id" json:"sender_id"`
	Body       string     `bson:"body" json:"body"`
	Media      *Media     `bson:"media,omitempty" json:"media,omitempty"`
	ReplyTo    *ReplyRef  `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	Reactions  []Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Status     Status     `bson:"status" json:"status"`
	DeletedFor []string   `bson:"deleted_for,omitempty" json:"deleted_for,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	EditedAt   *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
}
