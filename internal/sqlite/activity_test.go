package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.Entry{
		CampaignID: 1,
		Type:       activity.TypeCampaignCreated,
		Summary:    "Created campaign",
	}
	characterID := int64(2)
	entry2 := &activity.Entry{
		CampaignID:  1,
		CharacterID: &characterID,
		Type:        activity.TypeCharacterUpdated,
		Summary:     "Updated character",
		Details:     `{"stat":"HP"}`,
	}

	require.NoError(t, repo.Log(ctx, entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, entry2))
	require.NotZero(t, entry1.ID)

	entries, err := repo.List(ctx, activity.ListOptions{CampaignID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.Type, entries[0].Type)
	require.Equal(t, characterID, *entries[0].CharacterID)
	require.Equal(t, entry1.Type, entries[1].Type)
	require.Nil(t, entries[1].CharacterID)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	characterID := int64(1)
	require.NoError(t, repo.Log(ctx, &activity.Entry{CampaignID: 1, Type: activity.TypeCampaignCreated, Summary: "a"}))
	require.NoError(t, repo.Log(ctx, &activity.Entry{CampaignID: 1, CharacterID: &characterID, Type: activity.TypeCharacterCreated, Summary: "b"}))
	require.NoError(t, repo.Log(ctx, &activity.Entry{CampaignID: 2, Type: activity.TypeCampaignCreated, Summary: "c"}))

	entries, err := repo.List(ctx, activity.ListOptions{CampaignID: 1, CharacterID: &characterID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].Summary)

	kind := activity.TypeCampaignCreated
	entries, err = repo.List(ctx, activity.ListOptions{CampaignID: 1, Type: &kind})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, activity.ListOptions{CampaignID: 1, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a", entries[0].Summary)
}
