package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/gmboard/internal/client"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/overlay"
	"github.com/rpggio/gmboard/internal/testserver"
)

func TestClient_RoundTrip(t *testing.T) {
	ts := testserver.New(t)
	api := client.New(ts.URL(), client.WithTimeout(5*time.Second))
	ctx := context.Background()

	c, err := api.CreateCampaign(ctx, campaign.CreateRequest{Name: "Test", System: "Generic"})
	require.NoError(t, err)
	require.Equal(t, int64(1), c.ID)

	hero, err := api.AddCharacter(ctx, c.ID, campaign.AddCharacterRequest{Name: "Hero"})
	require.NoError(t, err)
	require.Equal(t, int64(1), hero.ID)

	name := "Heroine"
	updated, err := api.UpdateCharacter(ctx, 1, 1, campaign.CharacterPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Heroine", updated.Name)

	mutated, err := api.ApplyMutation(ctx, 1, 1, mutation.Mutation{Field: mutation.FieldStatValue, StatName: "Mana", Value: "12"})
	require.NoError(t, err)
	mana, _, _ := mutated.Stat("Mana")
	require.Equal(t, campaign.NumberValue(12), mana.Value)

	renamed, err := api.UpdateCampaign(ctx, 1, campaign.UpdateRequest{Name: "Renamed", System: "Generic"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", renamed.Name)

	list, err := api.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Heroine", list[0].Characters[0].Name)

	systems, err := api.ListSystems(ctx)
	require.NoError(t, err)
	require.Contains(t, systems, "Ordem Paranormal")

	view, err := api.GetOverlay(ctx, overlay.Address{CampaignID: 1})
	require.NoError(t, err)
	require.Len(t, view.Characters, 1)
}

func TestClient_StatusErrors(t *testing.T) {
	ts := testserver.New(t)
	api := client.New(ts.URL())
	ctx := context.Background()

	_, err := api.GetCampaign(ctx, 5)
	require.True(t, client.IsNotFound(err))
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "NOT_FOUND", statusErr.Code)

	_, err = api.CreateCampaign(ctx, campaign.CreateRequest{Name: " "})
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 400, statusErr.StatusCode)
	require.False(t, client.IsNotFound(err))
}

func TestClient_OptimisticAgainstServer(t *testing.T) {
	ts := testserver.New(t)
	seedServer(t, ts)
	api := client.New(ts.URL())
	ctx := context.Background()

	cache := client.NewCache[[]campaign.Campaign]()
	opt := client.NewOptimistic(cache, api)
	_, err := opt.Load(ctx)
	require.NoError(t, err)

	pending, err := opt.ApplyLocal(ctx, 1, 1, mutation.Mutation{Field: mutation.FieldStatValue, StatName: "HP", Value: "50"})
	require.NoError(t, err)
	require.NoError(t, pending.Wait(waitCtx(t)))

	stored, err := ts.Services.Campaigns.GetCharacter(ctx, 1, 1)
	require.NoError(t, err)
	hp, _, _ := stored.Stat("HP")
	require.Equal(t, campaign.NumberValue(50), hp.Value)
	require.Equal(t, campaign.NumberValue(50), statOf(t, cache, 1, "HP"))
}
