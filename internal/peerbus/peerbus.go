// Package peerbus implements mempool.PeerMonitor as a channel fan-out
// broadcaster, grounded on the pack's bus.Bus publish/subscribe
// pattern: each subscriber has its own buffered channel, and a full
// channel drops the event rather than blocking the pipeline.
package peerbus

import (
	"github.com/stathera/txadmission/internal/mempool"
)

// Event is one gossip event delivered to subscribed peer-connection
// goroutines.
type Event struct {
	Transactions []mempool.Transaction
}

// Subscriber is a peer-connection goroutine's inbound channel.
type Subscriber chan Event

// Monitor fans accepted/gossiped transactions out to every subscriber.
// Publish never blocks the pipeline: a subscriber that cannot keep up
// misses events rather than stalling broadcast for everyone else.
type Monitor struct {
	subs []chan Event
}

// NewMonitor returns an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Subscribe registers a new peer-connection channel with the given
// buffer size and returns it for the caller to read from.
func (m *Monitor) Subscribe(size int) Subscriber {
	if size <= 0 {
		size = 128
	}
	ch := make(chan Event, size)
	m.subs = append(m.subs, ch)
	return ch
}

// BroadcastTransactions implements mempool.PeerMonitor.
func (m *Monitor) BroadcastTransactions(txs []mempool.Transaction) {
	ev := Event{Transactions: txs}
	for _, sub := range m.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}
