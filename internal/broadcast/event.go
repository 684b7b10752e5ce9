package broadcast

import (
	"time"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// EventType names a push event.
type EventType string

const (
	EventCharacterCreated EventType = "character.created"
	EventCharacterUpdated EventType = "character.updated"
	EventCampaignUpdated  EventType = "campaign.updated"
)

// Event is what a room delivers to its subscribers. Seq increases by one
// per event within a campaign.
type Event struct {
	Type       EventType           `json:"type"`
	CampaignID int64               `json:"campaign_id"`
	Seq        int64               `json:"seq"`
	SentAt     time.Time           `json:"sent_at"`
	Character  *campaign.Character `json:"character,omitempty"`
	Campaign   *campaign.Campaign  `json:"campaign,omitempty"`
}

// eventFromChange maps a store write to a push event. Campaign creation has
// no audience yet and is not pushed.
func eventFromChange(change campaign.Change) (Event, bool) {
	ev := Event{CampaignID: change.CampaignID}
	switch change.Kind {
	case campaign.ChangeCharacterCreated:
		ev.Type = EventCharacterCreated
	case campaign.ChangeCharacterUpdated:
		ev.Type = EventCharacterUpdated
	case campaign.ChangeCampaignUpdated:
		ev.Type = EventCampaignUpdated
	default:
		return Event{}, false
	}
	if change.Character != nil {
		ch := change.Character.Clone()
		ev.Character = &ch
	}
	if change.Campaign != nil {
		c := change.Campaign.Clone()
		ev.Campaign = &c
	}
	return ev, true
}
