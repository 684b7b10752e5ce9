package mocks

import (
	"context"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/stretchr/testify/mock"
)

// CampaignRepository is a mock for campaign.Repository.
type CampaignRepository struct {
	mock.Mock
}

func (m *CampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]campaign.Campaign); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) Get(ctx context.Context, id int64) (*campaign.Campaign, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*campaign.Campaign); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) AppendCampaign(ctx context.Context, c campaign.Campaign) (*campaign.Campaign, error) {
	args := m.Called(ctx, c)
	if out, ok := args.Get(0).(*campaign.Campaign); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) UpdateCampaign(ctx context.Context, id int64, name, system string) (*campaign.Campaign, error) {
	args := m.Called(ctx, id, name, system)
	if out, ok := args.Get(0).(*campaign.Campaign); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) GetCharacter(ctx context.Context, campaignID, characterID int64) (*campaign.Character, error) {
	args := m.Called(ctx, campaignID, characterID)
	if ch, ok := args.Get(0).(*campaign.Character); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) AppendCharacter(ctx context.Context, campaignID int64, c campaign.Character) (*campaign.Character, error) {
	args := m.Called(ctx, campaignID, c)
	if ch, ok := args.Get(0).(*campaign.Character); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CampaignRepository) UpsertCharacter(ctx context.Context, campaignID, characterID int64, patch campaign.CharacterPatch, clamp campaign.ClampPolicy) (*campaign.Character, error) {
	args := m.Called(ctx, campaignID, characterID, patch, clamp)
	if ch, ok := args.Get(0).(*campaign.Character); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Notifier is a mock for campaign.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, change campaign.Change) {
	m.Called(ctx, change)
}
