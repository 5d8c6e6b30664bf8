package hub

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/fathima-sithara/realtime-service/internal/logger"
)

func TestNewRelayWiresCrossInstancePublish(t *testing.T) {
	h := New()
	assert.Nil(t, h.PublishToOtherInstances)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	r := NewRelay(client, h, logger.Nop())
	assert.NotNil(t, r)
	assert.NotNil(t, h.PublishToOtherInstances)
}

func TestRelayDeliversLocalChatFrames(t *testing.T) {
	h := New()
	a := NewConn("s1", "userA")
	b := NewConn("s2", "userB")
	h.Register(a)
	h.Register(b)
	h.JoinChats(a, []string{"c1"})
	h.JoinChats(b, []string{"c1"})

	h.deliverToChatLocal("c1", []byte("frame"))
	assert.Equal(t, []byte("frame"), <-a.Send)
	assert.Equal(t, []byte("frame"), <-b.Send)

	h.deliverToUserLocal("userA", []byte("direct"))
	assert.Equal(t, []byte("direct"), <-a.Send)
	select {
	case <-b.Send:
		t.Fatal("user frame leaked to another user")
	default:
	}
}
