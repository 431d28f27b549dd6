package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastAllDeliversToSubscribers(t *testing.T) {
	hub := NewFeedHub()
	a := &Client{Send: make(chan []byte, 1)}
	b := &Client{Send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.ClientCount())

	hub.BroadcastAll(map[string]interface{}{"type": "donation", "campaign_id": 7})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var msg map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, "donation", msg["type"])
		default:
			t.Fatal("subscriber did not receive broadcast")
		}
	}
}

func TestBroadcastAllSkipsSlowConsumer(t *testing.T) {
	hub := NewFeedHub()
	slow := &Client{Send: make(chan []byte)} // unbuffered, nobody reading
	hub.Register(slow)

	done := make(chan struct{})
	go func() {
		hub.BroadcastAll(map[string]string{"type": "donation"})
		close(done)
	}()
	select {
	case <-done:
	case <-slow.Send:
		t.Fatal("expected broadcast to skip the blocked client")
	}
}

func TestBroadcastDuringCloseDoesNotPanic(t *testing.T) {
	// Subscribers disconnect while the reconciliation path is broadcasting; a
	// send on a closed channel here would panic a payment request goroutine.
	hub := NewFeedHub()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c := &Client{Send: make(chan []byte, 1)}
				hub.Register(c)
				c.Close()
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		hub.BroadcastAll(map[string]interface{}{"type": "donation", "campaign_id": 1})
	}
	close(stop)
	wg.Wait()
}

func TestCloseUnregisters(t *testing.T) {
	hub := NewFeedHub()
	c := &Client{Send: make(chan []byte, 1)}
	hub.Register(c)
	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
	c.Close() // idempotent
}
