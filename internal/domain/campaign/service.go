package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/repository"
)

// Service handles campaign and character business logic.
type Service struct {
	repo       Repository
	templates  TemplateSource
	notifier   Notifier
	activities ActivityRepository
	clamp      ClampPolicy
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes every successful write to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithActivities records writes in the activity log.
func WithActivities(a ActivityRepository) Option {
	return func(s *Service) { s.activities = a }
}

// WithClampPolicy overrides the default ClampRange policy.
func WithClampPolicy(p ClampPolicy) Option {
	return func(s *Service) { s.clamp = p }
}

// NewService creates a new campaign service.
func NewService(repo Repository, templates TemplateSource, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		templates: templates,
		clamp:     ClampRange,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest describes a campaign creation request.
type CreateRequest struct {
	Name   string `json:"name"`
	System string `json:"system"`
}

// UpdateRequest describes a campaign update request.
type UpdateRequest struct {
	Name   string `json:"name"`
	System string `json:"system"`
}

// AddCharacterRequest describes a character creation request. An empty
// Icon gets the campaign's placeholder.
type AddCharacterRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// ClampPolicy returns the policy applied to stat writes.
func (s *Service) ClampPolicy() ClampPolicy {
	return s.clamp
}

// List returns every campaign with its characters.
func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return campaigns, nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, id int64) (*Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("getting campaign: %w", err)
	}
	return c, nil
}

// Create appends a campaign with no characters.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Campaign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	c, err := s.repo.AppendCampaign(ctx, Campaign{
		Name:       name,
		System:     strings.TrimSpace(req.System),
		CreatedAt:  time.Now().UTC(),
		Characters: []Character{},
	})
	if err != nil {
		return nil, fmt.Errorf("creating campaign: %w", err)
	}

	s.logActivity(ctx, &activity.Entry{
		CampaignID: c.ID,
		Type:       activity.TypeCampaignCreated,
		Summary:    fmt.Sprintf("created campaign %q", c.Name),
	})
	s.notify(ctx, Change{Kind: ChangeCampaignCreated, CampaignID: c.ID, Campaign: c})
	s.log().Info("campaign created", "campaign_id", c.ID, "system", c.System)
	return c, nil
}

// Update renames a campaign or changes its system.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Campaign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	c, err := s.repo.UpdateCampaign(ctx, id, name, strings.TrimSpace(req.System))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("updating campaign: %w", err)
	}

	s.logActivity(ctx, &activity.Entry{
		CampaignID: c.ID,
		Type:       activity.TypeCampaignUpdated,
		Summary:    fmt.Sprintf("updated campaign %q", c.Name),
	})
	s.notify(ctx, Change{Kind: ChangeCampaignUpdated, CampaignID: c.ID, Campaign: c})
	return c, nil
}

// ListCharacters returns the characters of one campaign.
func (s *Service) ListCharacters(ctx context.Context, campaignID int64) ([]Character, error) {
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return c.Characters, nil
}

// GetCharacter returns one character.
func (s *Service) GetCharacter(ctx context.Context, campaignID, characterID int64) (*Character, error) {
	ch, err := s.repo.GetCharacter(ctx, campaignID, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.missing(ctx, campaignID)
		}
		return nil, fmt.Errorf("getting character: %w", err)
	}
	return ch, nil
}

// AddCharacter appends a character seeded with the campaign's system template.
func (s *Service) AddCharacter(ctx context.Context, campaignID int64, req AddCharacterRequest) (*Character, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		icon = DefaultIcon(campaignID)
	}
	stats := []Stat{}
	if s.templates != nil {
		if tpl := s.templates.Template(c.System); tpl != nil {
			stats = CloneStats(tpl)
		}
	}

	ch, err := s.repo.AppendCharacter(ctx, campaignID, Character{
		Name:    name,
		Icon:    icon,
		Color:   req.Color,
		Visible: true,
		Stats:   stats,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("adding character: %w", err)
	}

	s.logActivity(ctx, &activity.Entry{
		CampaignID:  campaignID,
		CharacterID: &ch.ID,
		Type:        activity.TypeCharacterCreated,
		Summary:     fmt.Sprintf("added character %q", ch.Name),
	})
	s.notify(ctx, Change{Kind: ChangeCharacterCreated, CampaignID: campaignID, Character: ch})
	s.log().Info("character created", "campaign_id", campaignID, "character_id", ch.ID)
	return ch, nil
}

// UpdateCharacter merges a patch into a character and stores the result.
// The clamp policy applies to the stats the patch names. Concurrent updates
// of different fields or stats both land; for the same field the last write
// wins.
func (s *Service) UpdateCharacter(ctx context.Context, campaignID, characterID int64, patch CharacterPatch) (*Character, error) {
	if len(patch.Stats) > 0 {
		current, err := s.GetCharacter(ctx, campaignID, characterID)
		if err != nil {
			return nil, err
		}
		if _, err := current.Merge(patch); err != nil {
			return nil, err
		}
	}

	ch, err := s.repo.UpsertCharacter(ctx, campaignID, characterID, patch, s.clamp)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, s.missing(ctx, campaignID)
		case errors.Is(err, ErrKindMismatch), errors.Is(err, ErrUnknownStat), errors.Is(err, ErrInvalidInput):
			return nil, err
		}
		return nil, fmt.Errorf("updating character: %w", err)
	}

	s.logActivity(ctx, &activity.Entry{
		CampaignID:  campaignID,
		CharacterID: &ch.ID,
		Type:        activity.TypeCharacterUpdated,
		Summary:     fmt.Sprintf("updated character %q", ch.Name),
	})
	s.notify(ctx, Change{Kind: ChangeCharacterUpdated, CampaignID: campaignID, Character: ch})
	s.log().Debug("character updated", "campaign_id", campaignID, "character_id", ch.ID)
	return ch, nil
}

// missing tells a missing campaign apart from a missing character.
func (s *Service) missing(ctx context.Context, campaignID int64) error {
	if _, err := s.repo.Get(ctx, campaignID); errors.Is(err, repository.ErrNotFound) {
		return ErrCampaignNotFound
	}
	return ErrCharacterNotFound
}

func (s *Service) notify(ctx context.Context, change Change) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, change)
	}
}

func (s *Service) logActivity(ctx context.Context, entry *activity.Entry) {
	if s.activities == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.log().Warn("failed to log activity", "campaign_id", entry.CampaignID, "error", err)
	}
}

func (s *Service) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}
