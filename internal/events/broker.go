// Package events implements the in-process broadcast list behind the
// server-sent-events endpoint.  Handlers publish small notices (stall status
// changes, recorded payments, auction activity) and every connected client
// receives them.  The broker is injected where it is needed; there is no
// package-level instance.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Notice is one broadcast message.  Payload is kept as a marshaled blob so
// publishing never blocks on per-subscriber encoding.
type Notice struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Broker fans notices out to subscriber channels.  Slow subscribers are
// dropped rather than waited on: a stuck SSE connection must not stall the
// request handler that published the notice.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan Notice]struct{}
	buffer int
}

// NewBroker returns a broker whose subscriber channels buffer the given
// number of notices (minimum 1).
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{subs: make(map[chan Notice]struct{}), buffer: buffer}
}

// Subscribe registers a new listener.  The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish marshals data and delivers the notice to every subscriber whose
// buffer has room.  Subscribers that have fallen behind miss the notice.
func (b *Broker) Publish(noticeType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	n := Notice{Type: noticeType, At: time.Now().UTC(), Data: raw}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers reports the current listener count (used by tests and the
// health endpoint).
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
