package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

const (
	// DefaultPollInterval is the time between successful fetches.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxBackoff caps the delay between failed fetches.
	DefaultMaxBackoff = 30 * time.Second
)

// CampaignFetcher loads one campaign.
type CampaignFetcher interface {
	GetCampaign(ctx context.Context, id int64) (*campaign.Campaign, error)
}

// Poller fetches a campaign on an interval and hands every snapshot to its
// sink. A failed fetch keeps the previous snapshot and retries with
// growing delays until one succeeds.
type Poller struct {
	api        CampaignFetcher
	campaignID int64
	sink       Sink
	interval   time.Duration
	maxBackoff time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxBackoff(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.maxBackoff = d
		}
	}
}

func WithPollTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoller creates a poller of one campaign.
func NewPoller(api CampaignFetcher, campaignID int64, sink Sink, opts ...PollerOption) *Poller {
	p := &Poller{
		api:        api,
		campaignID: campaignID,
		sink:       sink,
		interval:   DefaultPollInterval,
		maxBackoff: DefaultMaxBackoff,
		timeout:    DefaultTimeout,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxBackoff < p.interval {
		p.maxBackoff = p.interval
	}
	return p
}

// Run fetches immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	backoff := Backoff{Base: p.interval, Max: p.maxBackoff, Multiplier: 2}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay := backoff.Next()
			p.logger.Warn("campaign poll failed",
				"campaign_id", p.campaignID,
				"attempt", backoff.Attempts(),
				"retry_in", delay,
				"error", err,
			)
			p.sink.Fail(err)
			timer.Reset(delay)
			continue
		}

		backoff.Reset()
		timer.Reset(p.interval)
	}
}

func (p *Poller) poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	c, err := p.api.GetCampaign(ctx, p.campaignID)
	if err != nil {
		return err
	}
	p.sink.Replace(*c)
	return nil
}
