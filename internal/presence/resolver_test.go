package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	rec Record
	err error
}

func (f *fakeBackend) Get(_ context.Context, _ string) (Record, error) {
	return f.rec, f.err
}

type fakeUsers struct {
	lastSeen time.Time
	err      error
}

func (f *fakeUsers) LastSeen(_ context.Context, _ string) (time.Time, error) {
	return f.lastSeen, f.err
}

func TestResolveOnlineFromStore(t *testing.T) {
	now := time.Now().Unix()
	r := NewResolver(&fakeBackend{rec: Record{Online: true, LastSeen: now}}, &fakeUsers{})

	p, err := r.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.Online)
	assert.Equal(t, time.Unix(now, 0).UTC(), p.LastSeen)
}

func TestResolveExpiredFallsBackToDurable(t *testing.T) {
	durable := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	r := NewResolver(&fakeBackend{err: ErrNotFound}, &fakeUsers{lastSeen: durable})

	p, err := r.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.Equal(t, durable, p.LastSeen)
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	r := NewResolver(&fakeBackend{err: errors.New("redis down")}, &fakeUsers{})

	_, err := r.Resolve(context.Background(), "u1")
	assert.Error(t, err)
}
