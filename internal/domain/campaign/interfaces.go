package campaign

import (
	"context"

	"github.com/rpggio/gmboard/internal/domain/activity"
)

// Repository is the State Store. Campaigns and characters come back in
// insertion order.
type Repository interface {
	List(ctx context.Context) ([]Campaign, error)
	Get(ctx context.Context, id int64) (*Campaign, error)
	AppendCampaign(ctx context.Context, c Campaign) (*Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, name, system string) (*Campaign, error)
	GetCharacter(ctx context.Context, campaignID, characterID int64) (*Character, error)
	AppendCharacter(ctx context.Context, campaignID int64, c Character) (*Character, error)
	// UpsertCharacter reads, merges and writes in one transaction, clamping
	// only the stats the patch names.
	UpsertCharacter(ctx context.Context, campaignID, characterID int64, patch CharacterPatch, clamp ClampPolicy) (*Character, error)
}

// TemplateSource yields a fresh stat template for a rule system.
type TemplateSource interface {
	Template(system string) []Stat
}

// Notifier receives every successful write.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

// ActivityRepository logs campaign activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
}
