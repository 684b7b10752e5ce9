package mutation

import (
	"context"
	"log/slog"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// CharacterStore reads and writes characters.
type CharacterStore interface {
	GetCharacter(ctx context.Context, campaignID, characterID int64) (*campaign.Character, error)
	UpdateCharacter(ctx context.Context, campaignID, characterID int64, patch campaign.CharacterPatch) (*campaign.Character, error)
	ClampPolicy() campaign.ClampPolicy
}

// Service applies mutations against stored characters.
type Service struct {
	store  CharacterStore
	logger *slog.Logger
}

// NewService creates a new mutation service.
func NewService(store CharacterStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Apply reads the character, applies m and writes only what changed.
func (s *Service) Apply(ctx context.Context, campaignID, characterID int64, m Mutation) (*campaign.Character, error) {
	current, err := s.store.GetCharacter(ctx, campaignID, characterID)
	if err != nil {
		return nil, err
	}

	next, err := Apply(*current, m, s.store.ClampPolicy())
	if err != nil {
		return nil, err
	}

	patch := Patch(*current, next)
	if patch.IsEmpty() {
		return current, nil
	}
	if s.logger != nil {
		s.logger.Debug("applying mutation", "campaign_id", campaignID, "character_id", characterID, "field", m.Field, "stat", m.StatName)
	}
	return s.store.UpdateCharacter(ctx, campaignID, characterID, patch)
}
