package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// Status is what a viewer can currently show.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusFailed    Status = "error"
	StatusEmpty     Status = "empty"
	StatusPopulated Status = "populated"
)

// ViewState is a viewer's local copy of one campaign.
type ViewState struct {
	Status    Status
	Campaign  *campaign.Campaign
	Err       error
	UpdatedAt time.Time
}

// Sink receives what the sync channel learns about a campaign.
type Sink interface {
	// Replace installs a full snapshot.
	Replace(c campaign.Campaign)
	// Merge folds a pushed event into the current snapshot.
	Merge(ev broadcast.Event)
	// Fail records a fetch or connection failure.
	Fail(err error)
}

// Viewer keeps the latest state of a campaign from polling and, when
// enabled, the push channel. Whatever arrives last wins.
type Viewer struct {
	campaignID int64
	poller     *Poller
	subscriber *Subscriber
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	state   ViewState
	updates chan ViewState
}

// ViewerOption configures a Viewer.
type ViewerOption func(*viewerConfig)

type viewerConfig struct {
	poll    []PollerOption
	push    bool
	pushURL string
	sub     []SubscriberOption
	logger  *slog.Logger
}

// WithPolling passes options to the viewer's poller.
func WithPolling(opts ...PollerOption) ViewerOption {
	return func(c *viewerConfig) { c.poll = append(c.poll, opts...) }
}

// WithPush adds a websocket subscription to the server at baseURL.
func WithPush(baseURL string, opts ...SubscriberOption) ViewerOption {
	return func(c *viewerConfig) {
		c.push = true
		c.pushURL = baseURL
		c.sub = append(c.sub, opts...)
	}
}

// WithViewerLogger sets the logger for the viewer and its channels.
func WithViewerLogger(logger *slog.Logger) ViewerOption {
	return func(c *viewerConfig) { c.logger = logger }
}

// NewViewer creates a viewer of one campaign.
func NewViewer(api CampaignFetcher, campaignID int64, opts ...ViewerOption) *Viewer {
	cfg := viewerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	v := &Viewer{
		campaignID: campaignID,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		state:      ViewState{Status: StatusLoading},
		updates:    make(chan ViewState, 1),
	}
	v.poller = NewPoller(api, campaignID, v, append([]PollerOption{WithPollerLogger(logger)}, cfg.poll...)...)
	if cfg.push {
		v.subscriber = NewSubscriber(cfg.pushURL, campaignID, v, append([]SubscriberOption{WithSubscriberLogger(logger)}, cfg.sub...)...)
	}
	return v
}

// Run drives the poller and subscriber until ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = v.poller.Run(ctx)
	}()
	if v.subscriber != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = v.subscriber.Run(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// Close stops the push subscription.
func (v *Viewer) Close() error {
	if v.subscriber != nil {
		return v.subscriber.Close()
	}
	return nil
}

// State returns a copy of the current state.
func (v *Viewer) State() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.clone()
}

// Updates delivers the newest state after each change. Intermediate states
// are skipped when the reader falls behind.
func (v *Viewer) Updates() <-chan ViewState {
	return v.updates
}

func (v *Viewer) Replace(c campaign.Campaign) {
	snapshot := c.Clone()
	v.set(func(s *ViewState) {
		s.Campaign = &snapshot
		s.Err = nil
	})
}

func (v *Viewer) Merge(ev broadcast.Event) {
	if ev.CampaignID != v.campaignID {
		return
	}
	v.set(func(s *ViewState) {
		switch ev.Type {
		case broadcast.EventCampaignUpdated:
			if ev.Campaign != nil {
				c := ev.Campaign.Clone()
				s.Campaign = &c
			}
		case broadcast.EventCharacterCreated, broadcast.EventCharacterUpdated:
			if ev.Character == nil || s.Campaign == nil {
				return
			}
			c := s.Campaign.Clone()
			c.Characters = upsertCharacter(c.Characters, ev.Character.Clone())
			s.Campaign = &c
		}
	})
}

func (v *Viewer) Fail(err error) {
	v.logger.Debug("viewer sync failed", "campaign_id", v.campaignID, "error", err)
	v.set(func(s *ViewState) { s.Err = err })
}

func (v *Viewer) set(fn func(*ViewState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.state)
	v.state.Status = statusOf(v.state)
	v.state.UpdatedAt = v.now()
	out := v.state.clone()

	select {
	case <-v.updates:
	default:
	}
	select {
	case v.updates <- out:
	default:
	}
}

// statusOf keeps showing the last snapshot through failures.
func statusOf(s ViewState) Status {
	switch {
	case s.Campaign != nil && len(s.Campaign.Characters) > 0:
		return StatusPopulated
	case s.Campaign != nil:
		return StatusEmpty
	case s.Err != nil:
		return StatusFailed
	default:
		return StatusLoading
	}
}

func (s ViewState) clone() ViewState {
	out := s
	if s.Campaign != nil {
		c := s.Campaign.Clone()
		out.Campaign = &c
	}
	return out
}

func upsertCharacter(chars []campaign.Character, ch campaign.Character) []campaign.Character {
	for i := range chars {
		if chars[i].ID == ch.ID {
			chars[i] = ch
			return chars
		}
	}
	return append(chars, ch)
}
