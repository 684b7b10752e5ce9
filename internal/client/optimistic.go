package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
)

// ErrNotLoaded is returned when a local change is attempted before the
// campaign list has been fetched into the cache.
var ErrNotLoaded = errors.New("campaign list not loaded")

// Confirmer persists characters and reloads the campaign list.
type Confirmer interface {
	UpdateCharacter(ctx context.Context, campaignID, characterID int64, patch campaign.CharacterPatch) (*campaign.Character, error)
	ListCampaigns(ctx context.Context) ([]campaign.Campaign, error)
}

// Optimistic applies dashboard edits to the cached campaign list right away
// and confirms each one with the server in the background.
type Optimistic struct {
	cache    *Cache[[]campaign.Campaign]
	api      Confirmer
	policy   campaign.ClampPolicy
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	inflight sync.WaitGroup
}

// OptimisticOption configures an Optimistic.
type OptimisticOption func(*Optimistic)

// WithClampPolicy sets the bound enforcement used for local edits.
func WithClampPolicy(p campaign.ClampPolicy) OptimisticOption {
	return func(o *Optimistic) { o.policy = p }
}

// WithNotifier receives sync failures.
func WithNotifier(n Notifier) OptimisticOption {
	return func(o *Optimistic) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithConfirmTimeout bounds each confirm round trip.
func WithConfirmTimeout(d time.Duration) OptimisticOption {
	return func(o *Optimistic) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithOptimisticLogger sets the logger.
func WithOptimisticLogger(logger *slog.Logger) OptimisticOption {
	return func(o *Optimistic) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOptimistic creates an optimistic writer over cache.
func NewOptimistic(cache *Cache[[]campaign.Campaign], api Confirmer, opts ...OptimisticOption) *Optimistic {
	o := &Optimistic{
		cache:    cache,
		api:      api,
		policy:   campaign.ClampRange,
		notifier: discardNotifier{},
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load fetches the campaign list and replaces the cached copy.
func (o *Optimistic) Load(ctx context.Context) ([]campaign.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	list, err := o.api.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	o.cache.Write(CampaignsKey, list)
	return list, nil
}

// Pending is one local change waiting for the server.
type Pending struct {
	// Before is the character as it was when the change was applied.
	Before campaign.Character
	// After is the locally applied result.
	After campaign.Character

	done   chan struct{}
	err    error
	stored *campaign.Character
}

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the confirm finishes and returns its error. A rolled
// back change reports why it was rejected.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stored is the character the server returned, once confirmed.
func (p *Pending) Stored() *campaign.Character {
	select {
	case <-p.done:
		return p.stored
	default:
		return nil
	}
}

func (p *Pending) resolve(stored *campaign.Character, err error) {
	p.stored = stored
	p.err = err
	close(p.done)
}

// ApplyLocal applies m to the cached character and returns without waiting
// for the network. The server is sent only the fields m changed. A change
// that leaves the character as it was is resolved immediately.
func (o *Optimistic) ApplyLocal(ctx context.Context, campaignID, characterID int64, m mutation.Mutation) (*Pending, error) {
	var before, after campaign.Character
	err := o.cache.Update(CampaignsKey, func(list []campaign.Campaign, ok bool) ([]campaign.Campaign, error) {
		if !ok {
			return nil, ErrNotLoaded
		}
		ci, chi, err := locate(list, campaignID, characterID)
		if err != nil {
			return nil, err
		}
		before = list[ci].Characters[chi].Clone()
		after, err = mutation.Apply(before, m, o.policy)
		if err != nil {
			return nil, err
		}
		return withCharacter(list, ci, chi, after), nil
	})
	if err != nil {
		return nil, err
	}

	p := &Pending{Before: before, After: after, done: make(chan struct{})}
	patch := mutation.Patch(before, after)
	if patch.IsEmpty() {
		p.resolve(nil, nil)
		return p, nil
	}

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		o.confirm(context.WithoutCancel(ctx), campaignID, characterID, m, patch, p)
	}()
	return p, nil
}

// Wait blocks until every in-flight confirm has finished.
func (o *Optimistic) Wait() {
	o.inflight.Wait()
}

func (o *Optimistic) confirm(ctx context.Context, campaignID, characterID int64, m mutation.Mutation, patch campaign.CharacterPatch, p *Pending) {
	putCtx, cancel := context.WithTimeout(ctx, o.timeout)
	stored, err := o.api.UpdateCharacter(putCtx, campaignID, characterID, patch)
	cancel()
	if err != nil {
		o.rollback(campaignID, p.Before)
		o.logger.Warn("character update rejected, rolled back",
			"campaign_id", campaignID,
			"character_id", characterID,
			"field", m.Field,
			"error", err,
		)
		o.notifier.Notify(Notification{
			ID:          uuid.NewString(),
			Kind:        KindSyncFailure,
			CampaignID:  campaignID,
			CharacterID: characterID,
			Mutation:    m,
			Message:     fmt.Sprintf("could not save %s: %v", describe(m), err),
			Err:         err,
			At:          time.Now().UTC(),
		})
		p.resolve(nil, err)
		return
	}

	// The store is authoritative once it has accepted the write.
	o.refresh(ctx, campaignID)
	p.resolve(stored, nil)
}

// refresh reloads the campaign list on its own deadline.
func (o *Optimistic) refresh(ctx context.Context, campaignID int64) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if list, err := o.api.ListCampaigns(ctx); err == nil {
		o.cache.Write(CampaignsKey, list)
	} else {
		o.logger.Warn("refreshing campaigns after update", "campaign_id", campaignID, "error", err)
	}
}

// rollback puts the snapshot back in place of the character it was taken
// from, leaving every other character as it currently is.
func (o *Optimistic) rollback(campaignID int64, snapshot campaign.Character) {
	_ = o.cache.Update(CampaignsKey, func(list []campaign.Campaign, ok bool) ([]campaign.Campaign, error) {
		if !ok {
			return nil, ErrNotLoaded
		}
		ci, chi, err := locate(list, campaignID, snapshot.ID)
		if err != nil {
			return nil, err
		}
		return withCharacter(list, ci, chi, snapshot.Clone()), nil
	})
}

func locate(list []campaign.Campaign, campaignID, characterID int64) (int, int, error) {
	for ci := range list {
		if list[ci].ID != campaignID {
			continue
		}
		for chi := range list[ci].Characters {
			if list[ci].Characters[chi].ID == characterID {
				return ci, chi, nil
			}
		}
		return 0, 0, campaign.ErrCharacterNotFound
	}
	return 0, 0, campaign.ErrCampaignNotFound
}

// withCharacter copies the list with one character replaced. Other
// campaigns are shared with the previous list.
func withCharacter(list []campaign.Campaign, ci, chi int, ch campaign.Character) []campaign.Campaign {
	out := make([]campaign.Campaign, len(list))
	copy(out, list)
	chars := make([]campaign.Character, len(list[ci].Characters))
	copy(chars, list[ci].Characters)
	chars[chi] = ch
	out[ci].Characters = chars
	return out
}

func describe(m mutation.Mutation) string {
	if m.StatName != "" {
		return fmt.Sprintf("%s of %s", m.Field, m.StatName)
	}
	return string(m.Field)
}
