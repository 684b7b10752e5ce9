package mcp

import (
	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
)

type ListCampaignsParams struct{}

type GetCampaignParams struct {
	CampaignID int64 `json:"campaign_id" jsonschema:"campaign id"`
}

type CreateCampaignParams struct {
	Name   string `json:"name" jsonschema:"campaign display name"`
	System string `json:"system,omitempty" jsonschema:"rule system name from list_systems"`
}

type AddCharacterParams struct {
	CampaignID int64  `json:"campaign_id" jsonschema:"campaign id"`
	Name       string `json:"name" jsonschema:"character name"`
	Icon       string `json:"icon,omitempty" jsonschema:"icon URL, defaults to the campaign placeholder"`
	Color      string `json:"color,omitempty" jsonschema:"accent color, e.g. #ff0000"`
}

type ApplyMutationParams struct {
	CampaignID  int64  `json:"campaign_id" jsonschema:"campaign id"`
	CharacterID int64  `json:"character_id" jsonschema:"character id within the campaign"`
	Field       string `json:"field" jsonschema:"one of name, icon, color, visible, statValue, statMax"`
	StatName    string `json:"stat_name,omitempty" jsonschema:"stat to change, for statValue and statMax"`
	Value       any    `json:"value" jsonschema:"new value"`
}

type GetOverlayParams struct {
	CampaignID  int64  `json:"campaign_id" jsonschema:"campaign id"`
	CharacterID *int64 `json:"character_id,omitempty" jsonschema:"only show this character"`
	Variation   string `json:"variation,omitempty" jsonschema:"layout variation, e.g. 2 for compact"`
}

type ListSystemsParams struct {
	Name string `json:"name,omitempty" jsonschema:"only return this system"`
}

type GetRecentActivityParams struct {
	CampaignID  int64  `json:"campaign_id" jsonschema:"campaign id"`
	CharacterID *int64 `json:"character_id,omitempty" jsonschema:"only entries about this character"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

type CampaignsResult struct {
	Campaigns []campaign.Campaign `json:"campaigns"`
}

type SystemsResult struct {
	Systems []system.System `json:"systems"`
}

type OverlayResult struct {
	Overlay overlay.View `json:"overlay"`
	Path    string       `json:"path"`
}

type ActivityResult struct {
	Entries []activity.Entry `json:"entries"`
}
