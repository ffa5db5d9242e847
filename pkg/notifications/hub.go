package notifications

import (
	"sync"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const subscriberBuffer = 16

// Hub fans notification payloads out to live websocket subscriptions, keyed
// by user ID. Delivery is best-effort: subscribers with full buffers are
// skipped, and a user with no subscriptions drops the payload entirely. The
// persisted notification row is always the source of truth.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]map[chan []byte]struct{}
	log         logger.Logger
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int]map[chan []byte]struct{}),
		log:         logger.New(),
	}
}

// Subscribe registers a new subscription for the user and returns the
// channel payloads arrive on plus an unsubscribe function.
func (h *Hub) Subscribe(userID int) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan []byte]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// Publish sends a payload to every live subscription for the user. It never
// blocks the caller: slow subscribers are skipped.
func (h *Hub) Publish(userID int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Err(err).Warn("notification payload marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- data:
		default:
			// Subscriber buffer is full. Drop rather than block.
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a user.
func (h *Hub) SubscriberCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
