package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var m Message
			_ = json.Unmarshal(b, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestBroadcastSkipsExcludedUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient("a", nil), NewClient("a", nil), NewClient("b", nil)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	require.Equal(t, 3, h.Count())

	sent := h.Broadcast("event.created", map[string]string{"id": "e1"}, "a")
	assert.Equal(t, 1, sent)
	assert.Empty(t, drain(a1))
	assert.Empty(t, drain(a2))

	got := drain(b)
	require.Len(t, got, 1)
	assert.Equal(t, "event.created", got[0].Type)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestFullSessionIsEvicted(t *testing.T) {
	h := NewHub()
	slow, fast := NewClient("slow", nil), NewClient("fast", nil)
	h.Register(slow)
	h.Register(fast)

	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte("{}")
	}
	sent := h.Broadcast("series.updated", nil, "")
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, h.Count())
	assert.Len(t, drain(fast), 1)

	// evicted sessions have their queue closed
	for range slow.send {
	}
}

func TestSendTargetsOneUser(t *testing.T) {
	h := NewHub()
	a, b := NewClient("a", nil), NewClient("b", nil)
	h.Register(a)
	h.Register(b)

	assert.Equal(t, 1, h.Send("b", "notification.created", nil))
	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
	assert.Zero(t, h.Send("nobody", "x", nil))
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := NewClient("u", nil)
			h.Register(c)
			h.Unregister(c)
		}()
		go func() {
			defer wg.Done()
			h.Broadcast("event.updated", nil, "")
		}()
	}
	wg.Wait()
	assert.Zero(t, h.Count())

	// a second Unregister is harmless
	c := NewClient("u", nil)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)
	assert.Zero(t, h.Count())
}
