package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Notice) Notice {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notice")
		return Notice{}
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker(4)
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()
	require.Equal(t, 2, b.Subscribers())

	b.Publish("payment.recorded", map[string]uint64{"paymentId": 9})

	for _, ch := range []<-chan Notice{ch1, ch2} {
		n := recv(t, ch)
		assert.Equal(t, "payment.recorded", n.Type)
		assert.False(t, n.At.IsZero())

		var data map[string]uint64
		require.NoError(t, json.Unmarshal(n.Data, &data))
		assert.Equal(t, uint64(9), data["paymentId"])
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	b := NewBroker(1)
	ch, cancel := b.Subscribe()
	cancel()
	assert.Equal(t, 0, b.Subscribers())

	// The channel is closed so a pending reader unblocks.
	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is harmless.
	cancel()
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := NewBroker(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	// Fill the buffer, then keep publishing; the extra notices are dropped
	// for this subscriber instead of blocking the publisher.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			b.Publish("stall.status", map[string]int{"n": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// At least the first notice is waiting in the buffer.
	n := recv(t, ch)
	assert.Equal(t, "stall.status", n.Type)
}

func TestPublishSkipsUnmarshalableData(t *testing.T) {
	b := NewBroker(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	// A payload json cannot encode is dropped silently.
	b.Publish("bad", func() {})

	select {
	case n := <-ch:
		t.Fatalf("unexpected notice: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}
