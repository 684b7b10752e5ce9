package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeCampaignCreated  Type = "campaign_created"
	TypeCampaignUpdated  Type = "campaign_updated"
	TypeCharacterCreated Type = "character_created"
	TypeCharacterUpdated Type = "character_updated"
)

// Entry represents an event in the activity log
type Entry struct {
	ID          int64     `json:"id"`
	CampaignID  int64     `json:"campaign_id"`
	CharacterID *int64    `json:"character_id,omitempty"`
	Type        Type      `json:"type"`
	Summary     string    `json:"summary"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	CampaignID  int64
	CharacterID *int64
	Type        *Type
	Limit       int
	Offset      int
}
