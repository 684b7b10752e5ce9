package campaign

// ChangeKind names what a write did.
type ChangeKind string

const (
	ChangeCampaignCreated  ChangeKind = "campaign.created"
	ChangeCampaignUpdated  ChangeKind = "campaign.updated"
	ChangeCharacterCreated ChangeKind = "character.created"
	ChangeCharacterUpdated ChangeKind = "character.updated"
)

// Change is the post-write state handed to a Notifier. Exactly one of
// Campaign and Character is set.
type Change struct {
	Kind       ChangeKind
	CampaignID int64
	Campaign   *Campaign
	Character  *Character
}
