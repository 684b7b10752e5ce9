package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// DefaultQueueSize is the per-subscriber buffer used when none is configured.
const DefaultQueueSize = 64

// Subscriber is one registered viewer of a campaign room.
type Subscriber struct {
	id         string
	campaignID int64
	events     chan Event

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// ID identifies the subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// CampaignID is the room the subscriber joined.
func (s *Subscriber) CampaignID() int64 { return s.campaignID }

// Events delivers the room's events. The channel is closed on Leave.
func (s *Subscriber) Events() <-chan Event { return s.events }

// Dropped counts events discarded because the queue was full.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscriber) offer(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- ev:
		return true
	default:
		s.dropped++
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

type room struct {
	mu          sync.Mutex
	campaignID  int64
	subscribers map[*Subscriber]struct{}
}

// Hub fans campaign events out to the subscribers of each campaign room.
type Hub struct {
	mu        sync.Mutex
	rooms     map[int64]*room
	seq       map[int64]int64
	queueSize int
	now       func() time.Time
	logger    *slog.Logger
}

// NewHub creates a hub whose subscribers buffer up to queueSize events.
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		rooms:     make(map[int64]*room),
		seq:       make(map[int64]int64),
		queueSize: queueSize,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Join registers a new subscriber in the campaign's room.
func (h *Hub) Join(campaignID int64) *Subscriber {
	sub := &Subscriber{
		id:         uuid.NewString(),
		campaignID: campaignID,
		events:     make(chan Event, h.queueSize),
	}

	h.mu.Lock()
	r, ok := h.rooms[campaignID]
	if !ok {
		r = &room{campaignID: campaignID, subscribers: make(map[*Subscriber]struct{})}
		h.rooms[campaignID] = r
	}
	r.mu.Lock()
	r.subscribers[sub] = struct{}{}
	r.mu.Unlock()
	h.mu.Unlock()

	h.logger.Debug("subscriber joined", "campaign_id", campaignID, "subscriber_id", sub.id)
	return sub
}

// Leave deregisters the subscriber and closes its channel. Calling it more
// than once is harmless.
func (h *Hub) Leave(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if r, ok := h.rooms[sub.campaignID]; ok {
		r.mu.Lock()
		delete(r.subscribers, sub)
		empty := len(r.subscribers) == 0
		r.mu.Unlock()
		if empty {
			delete(h.rooms, sub.campaignID)
		}
	}
	h.mu.Unlock()

	sub.close()
	h.logger.Debug("subscriber left", "campaign_id", sub.campaignID, "subscriber_id", sub.id)
}

// Publish stamps the event with the next sequence number and offers it to
// every subscriber of its campaign. Publishes are delivered in sequence
// order. It never blocks; a full queue drops the event for that subscriber.
// It returns how many subscribers received it.
func (h *Hub) Publish(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq[ev.CampaignID]++
	ev.Seq = h.seq[ev.CampaignID]
	if ev.SentAt.IsZero() {
		ev.SentAt = h.now()
	}

	r := h.rooms[ev.CampaignID]
	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for sub := range r.subscribers {
		if sub.offer(ev) {
			delivered++
			continue
		}
		h.logger.Warn("dropped event for slow subscriber",
			"campaign_id", ev.CampaignID,
			"subscriber_id", sub.id,
			"type", ev.Type,
			"seq", ev.Seq,
		)
	}
	return delivered
}

// Notify publishes a store write. It satisfies campaign.Notifier.
func (h *Hub) Notify(_ context.Context, change campaign.Change) {
	if ev, ok := eventFromChange(change); ok {
		h.Publish(ev)
	}
}

// Subscribers reports how many subscribers a campaign room has.
func (h *Hub) Subscribers(campaignID int64) int {
	h.mu.Lock()
	r := h.rooms[campaignID]
	h.mu.Unlock()
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// LastSeq returns the last sequence number published for a campaign.
func (h *Hub) LastSeq(campaignID int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq[campaignID]
}

// Close deregisters every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscriber
	for id, r := range h.rooms {
		r.mu.Lock()
		for sub := range r.subscribers {
			all = append(all, sub)
		}
		r.mu.Unlock()
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
}
