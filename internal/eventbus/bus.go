package eventbus

import (
	"log/slog"
	"sync"
)

// Event types published by the case pipeline.
const (
	TypeCaseCreated         = "case_created"
	TypeCaseStatus          = "case_status"
	TypeTranscriptPartial   = "transcript_partial"
	TypeTranscriptCommitted = "transcript_committed"
	TypeNEMSISUpdate        = "nemsis_update"
	TypeDownstreamComplete  = "downstream_complete"
)

// Event is a transient case-scoped notification. CaseID is stamped by
// Publish; callers never set it themselves.
type Event struct {
	CaseID string `json:"case_id"`
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
}

// Subscription is a bounded per-subscriber queue. Events are delivered in
// publish order; when the queue is full further events are dropped for this
// subscriber only.
type Subscription struct {
	ch chan Event
}

// Events returns the receive side of the subscription queue.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Bus is an in-process pub/sub distributing case-scoped and global events.
// The mutex guards subscriber membership only; the fan-out itself never
// blocks on a slow consumer.
type Bus struct {
	queueSize int

	mu     sync.Mutex
	byCase map[string]map[*Subscription]struct{}
	global map[*Subscription]struct{}
}

func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Bus{
		queueSize: queueSize,
		byCase:    make(map[string]map[*Subscription]struct{}),
		global:    make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a queue for one case's events.
func (b *Bus) Subscribe(caseID string) *Subscription {
	sub := &Subscription{ch: make(chan Event, b.queueSize)}
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.byCase[caseID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.byCase[caseID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// SubscribeAll registers a queue for every case's events.
func (b *Bus) SubscribeAll() *Subscription {
	sub := &Subscription{ch: make(chan Event, b.queueSize)}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a case-scoped queue. Removing the last subscriber for
// a case prunes that case's subscriber set.
func (b *Bus) Unsubscribe(caseID string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.byCase[caseID]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.byCase, caseID)
	}
}

// UnsubscribeAll removes a global queue.
func (b *Bus) UnsubscribeAll(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.global, sub)
}

// Publish stamps the event with caseID and enqueues it into every matching
// case-scoped queue and every global queue. Full queues drop the event for
// that subscriber with a warning; publishers never block or fail.
func (b *Bus) Publish(caseID string, event Event) {
	event.CaseID = caseID

	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.global)+4)
	for sub := range b.byCase[caseID] {
		targets = append(targets, sub)
	}
	for sub := range b.global {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- event:
		default:
			slog.Warn("event queue full, dropping event for subscriber", "case_id", caseID, "type", event.Type)
		}
	}
}
