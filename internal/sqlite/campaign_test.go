package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func genericStats() []campaign.Stat {
	return []campaign.Stat{
		{Name: "HP", Value: campaign.NumberValue(100), Max: campaign.Int64(100), Color: "#e11d48"},
		{Name: "Inspired", Value: campaign.BoolValue(false)},
		{Name: "Class", Value: campaign.StringValue("Bard")},
	}
}

func insertCampaign(t *testing.T, repo *CampaignRepository, name string) *campaign.Campaign {
	t.Helper()
	c, err := repo.AppendCampaign(context.Background(), campaign.Campaign{
		Name:      name,
		System:    "Generic",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return c
}

func TestCampaignRepository_AppendAssignsSequentialIDs(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()

	first := insertCampaign(t, repo, "Test")
	second := insertCampaign(t, repo, "Other")
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Empty(t, first.Characters)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Test", list[0].Name)
	require.Equal(t, "Other", list[1].Name)
	require.NotNil(t, list[0].Characters)
}

func TestCampaignRepository_CharacterIDs(t *testing.T) {
	db := NewTestDB(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")

	ch, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "Hero", Visible: true, Stats: genericStats()})
	require.NoError(t, err)
	require.Equal(t, int64(1), ch.ID, "empty campaign starts at 1")

	// Leave a gap: ids [1, 3].
	_, err = db.ExecContext(ctx,
		`INSERT INTO characters (campaign_id, id, name, stats, position) VALUES (?, ?, ?, ?, ?)`,
		c.ID, 3, "Gap", "[]", 2)
	require.NoError(t, err)

	next, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "Next", Visible: true})
	require.NoError(t, err)
	require.Equal(t, int64(4), next.ID)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Characters, 3)
	require.Equal(t, []int64{1, 3, 4}, []int64{got.Characters[0].ID, got.Characters[1].ID, got.Characters[2].ID})
	require.Equal(t, genericStats(), got.Characters[0].Stats)

	_, err = repo.AppendCharacter(ctx, 42, campaign.Character{Name: "Nobody"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCampaignRepository_IDsAreScopedPerCampaign(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	a := insertCampaign(t, repo, "A")
	b := insertCampaign(t, repo, "B")

	ca, err := repo.AppendCharacter(ctx, a.ID, campaign.Character{Name: "x"})
	require.NoError(t, err)
	cb, err := repo.AppendCharacter(ctx, b.ID, campaign.Character{Name: "y"})
	require.NoError(t, err)
	require.Equal(t, int64(1), ca.ID)
	require.Equal(t, int64(1), cb.ID)
}

func TestCampaignRepository_UpsertMergesPatch(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")
	ch, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "Hero", Icon: "a.png", Visible: true, Stats: genericStats()})
	require.NoError(t, err)

	visible := false
	updated, err := repo.UpsertCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
		Visible: &visible,
		Stats:   []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(50)}},
	}, campaign.ClampRange)
	require.NoError(t, err)
	require.False(t, updated.Visible)
	require.Equal(t, "a.png", updated.Icon)
	require.Equal(t, int64(50), updated.Stats[0].Value.Number)
	require.Equal(t, int64(100), *updated.Stats[0].Max)

	stored, err := repo.GetCharacter(ctx, c.ID, ch.ID)
	require.NoError(t, err)
	require.Equal(t, updated, stored)
}

func TestCampaignRepository_UpsertClampsOnlyPatchedStats(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")
	ch, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "Hero", Stats: []campaign.Stat{
		{Name: "HP", Value: campaign.NumberValue(10), Max: campaign.Int64(100)},
		{Name: "Mana", Value: campaign.NumberValue(150), Max: campaign.Int64(100)},
	}})
	require.NoError(t, err)

	updated, err := repo.UpsertCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
		Stats: []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(250)}},
	}, campaign.ClampRange)
	require.NoError(t, err)
	require.Equal(t, int64(100), updated.Stats[0].Value.Number)
	require.Equal(t, int64(150), updated.Stats[1].Value.Number)

	updated, err = repo.UpsertCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
		Stats: []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(-3)}},
	}, campaign.ClampNone)
	require.NoError(t, err)
	require.Equal(t, int64(-3), updated.Stats[0].Value.Number)
}

func TestCampaignRepository_UpsertRejectsKindChange(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")
	ch, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "Hero", Stats: genericStats()})
	require.NoError(t, err)

	_, err = repo.UpsertCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
		Stats: []campaign.Stat{{Name: "Inspired", Value: campaign.NumberValue(1)}},
	}, campaign.ClampRange)
	require.ErrorIs(t, err, campaign.ErrKindMismatch)

	stored, err := repo.GetCharacter(ctx, c.ID, ch.ID)
	require.NoError(t, err)
	require.Equal(t, campaign.BoolValue(false), stored.Stats[1].Value)
}

func TestCampaignRepository_NotFound(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetCharacter(ctx, 1, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.UpsertCharacter(ctx, 1, 1, campaign.CharacterPatch{}, campaign.ClampRange)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.UpdateCampaign(ctx, 1, "x", "y")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCampaignRepository_UpdateCampaign(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")

	updated, err := repo.UpdateCampaign(ctx, c.ID, "Renamed", "Mythic Bastionland")
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "Mythic Bastionland", updated.System)
}

func TestCampaignRepository_ConcurrentAppends(t *testing.T) {
	repo := NewCampaignRepository(NewTestDB(t))
	ctx := context.Background()
	c := insertCampaign(t, repo, "Test")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppendCharacter(ctx, c.ID, campaign.Character{Name: "npc"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Characters, 10)
	seen := map[int64]bool{}
	for _, ch := range got.Characters {
		require.False(t, seen[ch.ID], "duplicate id %d", ch.ID)
		seen[ch.ID] = true
	}
}
