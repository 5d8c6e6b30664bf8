package models

import "time"

type Chat struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name,omitempty" json:"name"`
	IsGroup     bool      `bson:"is_group" json:"is_group"`
	Members     []string  `bson:"members" json:"members"`
	LastMessage *Message  `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

type User struct {
	ID       string    `bson:"_id,omitempty" json:"id"`
	Username string    `bson:"username" json:"username"`
	LastSeen time.Time `bson:"last_seen" json:"last_seen"`
}

// Presence is the ephemeral online state for a user. When the backing record
// has expired, Online is false and LastSeen holds the durable value from the
// user document.
type Presence struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}
