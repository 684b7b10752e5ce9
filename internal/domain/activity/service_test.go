package activity_test

import (
	"context"
	"testing"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{
		CampaignID: 1,
		Type:       activity.TypeCampaignCreated,
		Summary:    "created",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListOptions{CampaignID: 1, Limit: 50}).Return([]activity.Entry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, activity.ListOptions{CampaignID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)

	require.ErrorIs(t, svc.LogActivity(ctx, nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.Entry{Type: activity.TypeCampaignCreated}), activity.ErrInvalidInput)

	_, err := svc.GetRecentActivity(ctx, activity.ListOptions{})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestActivityService_CapsLimit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, activity.ListOptions{CampaignID: 2, Limit: 500}).Return([]activity.Entry{}, nil)

	svc := activity.NewService(repo, nil)
	_, err := svc.GetRecentActivity(ctx, activity.ListOptions{CampaignID: 2, Limit: 10000})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
