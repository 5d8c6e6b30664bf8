package presence

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

// Backend is the ephemeral store half of the resolver. *Store satisfies it.
type Backend interface {
	Get(ctx context.Context, userID string) (Record, error)
}

// LastSeenSource provides the durable last_seen value for a user.
type LastSeenSource interface {
	LastSeen(ctx context.Context, userID string) (time.Time, error)
}

// Resolver answers "is this user online" by combining the TTL'd store with
// the durable user record. An absent key is definitionally offline as of the
// last durably known last_seen.
type Resolver struct {
	store Backend
	users LastSeenSource
}

func NewResolver(store Backend, users LastSeenSource) *Resolver {
	return &Resolver{store: store, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (models.Presence, error) {
	rec, err := r.store.Get(ctx, userID)
	if err == nil {
		return models.Presence{
			UserID:   userID,
			Online:   rec.Online,
			LastSeen: time.Unix(rec.LastSeen, 0).UTC(),
		}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Presence{}, err
	}
	last, err := r.users.LastSeen(ctx, userID)
	if err != nil {
		return models.Presence{}, err
	}
	return models.Presence{UserID: userID, Online: false, LastSeen: last}, nil
}
