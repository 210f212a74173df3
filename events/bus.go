package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Topic names the two notification streams the engine publishes
type Topic string

const (
	// TopicJournalAppended fires once per journal entry written
	TopicJournalAppended Topic = "journal.appended"

	// TopicScanCompleted fires once per finished scan
	TopicScanCompleted Topic = "scan.completed"
)

// Notification is a bus message
type Notification interface {
	Topic() Topic
	Time() time.Time
}

// JournalAppended announces one applied journal entry
type JournalAppended struct {
	EntryID     string `json:"entryId"`
	Kind        Kind   `json:"kind"`
	BlockNumber uint64 `json:"blockNumber"`
	Description string `json:"description"`

	At time.Time `json:"-"`
}

func (n *JournalAppended) Topic() Topic    { return TopicJournalAppended }
func (n *JournalAppended) Time() time.Time { return n.At }

// ScanCompleted announces one finished scan with its outcome
type ScanCompleted struct {
	FromBlock     uint64 `json:"fromBlock"`
	ToBlock       uint64 `json:"toBlock"`
	EventsApplied int    `json:"eventsApplied"`
	EventsSkipped int    `json:"eventsSkipped"`
	FailedRanges  int    `json:"failedRanges"`

	Duration time.Duration `json:"-"`
	At       time.Time     `json:"-"`
}

func (n *ScanCompleted) Topic() Topic    { return TopicScanCompleted }
func (n *ScanCompleted) Time() time.Time { return n.At }

// SubscriptionID is a unique identifier for a subscription
type SubscriptionID string

// Subscription is one consumer's view of the bus. Delivery is non-blocking:
// notifications a full Channel cannot take are dropped and counted.
type Subscription struct {
	ID      SubscriptionID
	Topics  map[Topic]bool
	Channel chan Notification

	// Dropped counts notifications lost to a full channel
	Dropped atomic.Uint64
}

// Bus is the in-process pub/sub broker between the engine and the API layer.
// A single Run goroutine owns the subscriber registry.
type Bus struct {
	subscribers map[SubscriptionID]*Subscription
	mu          sync.RWMutex

	publishCh     chan Notification
	subscribeCh   chan *Subscription
	unsubscribeCh chan SubscriptionID

	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	metrics *BusMetrics
}

// NewBus creates a bus with the given publish buffer size
func NewBus(bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())

	return &Bus{
		subscribers:   make(map[SubscriptionID]*Subscription),
		publishCh:     make(chan Notification, bufferSize),
		subscribeCh:   make(chan *Subscription, 16),
		unsubscribeCh: make(chan SubscriptionID, 16),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SetMetrics enables Prometheus metrics. Optional.
func (b *Bus) SetMetrics(metrics *BusMetrics) {
	b.metrics = metrics
}

// Run starts the bus main loop. Call in a goroutine.
func (b *Bus) Run() {
	defer close(b.done)

	for {
		select {
		case <-b.ctx.Done():
			b.closeAllSubscriptions()
			return

		case sub := <-b.subscribeCh:
			b.mu.Lock()
			b.subscribers[sub.ID] = sub
			count := len(b.subscribers)
			b.mu.Unlock()

			if b.metrics != nil {
				b.metrics.SetSubscribers(count)
			}

		case subID := <-b.unsubscribeCh:
			b.mu.Lock()
			if sub, exists := b.subscribers[subID]; exists {
				close(sub.Channel)
				delete(b.subscribers, subID)
			}
			count := len(b.subscribers)
			b.mu.Unlock()

			if b.metrics != nil {
				b.metrics.SetSubscribers(count)
			}

		case notification := <-b.publishCh:
			b.published.Add(1)
			if b.metrics != nil {
				b.metrics.RecordPublished(notification.Topic())
			}
			b.broadcast(notification)
		}
	}
}

// broadcast delivers a notification to every subscriber of its topic without
// ever blocking on a slow consumer
func (b *Bus) broadcast(notification Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topic := notification.Topic()

	for _, sub := range b.subscribers {
		if !sub.Topics[topic] {
			continue
		}

		select {
		case sub.Channel <- notification:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
			sub.Dropped.Add(1)
			if b.metrics != nil {
				b.metrics.RecordDropped(topic)
			}
		}
	}
}

func (b *Bus) closeAllSubscriptions() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		close(sub.Channel)
	}
	b.subscribers = make(map[SubscriptionID]*Subscription)
}

// Stop gracefully stops the bus, closing all subscriptions
func (b *Bus) Stop() {
	b.cancel()
	<-b.done
}

// Publish offers a notification to the bus. Non-blocking: returns false when
// the bus is stopped or its buffer is full.
func (b *Bus) Publish(notification Notification) bool {
	select {
	case <-b.ctx.Done():
		return false
	default:
	}

	select {
	case b.publishCh <- notification:
		return true
	default:
		b.dropped.Add(1)
		if b.metrics != nil {
			b.metrics.RecordDropped(notification.Topic())
		}
		return false
	}
}

// Subscribe registers a consumer for the given topics
func (b *Bus) Subscribe(id SubscriptionID, topics []Topic, channelSize int) *Subscription {
	topicSet := make(map[Topic]bool, len(topics))
	for _, t := range topics {
		topicSet[t] = true
	}

	sub := &Subscription{
		ID:      id,
		Topics:  topicSet,
		Channel: make(chan Notification, channelSize),
	}

	select {
	case b.subscribeCh <- sub:
		return sub
	case <-b.ctx.Done():
		close(sub.Channel)
		return nil
	}
}

// Unsubscribe removes a subscription and closes its channel
func (b *Bus) Unsubscribe(id SubscriptionID) {
	select {
	case b.unsubscribeCh <- id:
	case <-b.ctx.Done():
	}
}

// SubscriberCount returns the number of active subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Stats returns the published/delivered/dropped counters
func (b *Bus) Stats() (published, delivered, dropped uint64) {
	return b.published.Load(), b.delivered.Load(), b.dropped.Load()
}
