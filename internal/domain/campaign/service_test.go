package campaign_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/repository"
	"github.com/rpggio/gmboard/internal/repository/mocks"
	"github.com/rpggio/gmboard/internal/sqlite"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type templateStub map[string][]campaign.Stat

func (t templateStub) Template(system string) []campaign.Stat {
	return t[system]
}

func TestCampaignService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	svc := campaign.NewService(repo, nil, nil)

	_, err := svc.Create(ctx, campaign.CreateRequest{Name: "  "})
	require.ErrorIs(t, err, campaign.ErrInvalidInput)
	repo.AssertNotCalled(t, "AppendCampaign", mock.Anything, mock.Anything)
}

func TestCampaignService_CreateNotifies(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	notifier := &mocks.Notifier{}
	activities := &mocks.ActivityRepository{}

	created := &campaign.Campaign{ID: 1, Name: "Test", System: "Generic", Characters: []campaign.Character{}}
	repo.On("AppendCampaign", ctx, mock.MatchedBy(func(c campaign.Campaign) bool {
		return c.Name == "Test" && c.System == "Generic" && !c.CreatedAt.IsZero()
	})).Return(created, nil)
	notifier.On("Notify", ctx, campaign.Change{Kind: campaign.ChangeCampaignCreated, CampaignID: 1, Campaign: created}).Return()
	activities.On("Log", ctx, mock.Anything).Return(nil)

	svc := campaign.NewService(repo, nil, nil, campaign.WithNotifier(notifier), campaign.WithActivities(activities))
	c, err := svc.Create(ctx, campaign.CreateRequest{Name: "Test", System: "Generic"})
	require.NoError(t, err)
	require.Equal(t, int64(1), c.ID)

	notifier.AssertExpectations(t)
	activities.AssertExpectations(t)
}

func TestCampaignService_GetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	repo.On("Get", ctx, int64(9)).Return((*campaign.Campaign)(nil), repository.ErrNotFound)

	svc := campaign.NewService(repo, nil, nil)
	_, err := svc.Get(ctx, 9)
	require.ErrorIs(t, err, campaign.ErrCampaignNotFound)
}

func TestCampaignService_AddCharacterCopiesTemplate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	templates := templateStub{
		"Generic": {{Name: "HP", Value: campaign.NumberValue(100), Max: campaign.Int64(100)}},
	}

	repo.On("Get", ctx, int64(1)).Return(&campaign.Campaign{ID: 1, System: "Generic"}, nil)

	var captured campaign.Character
	repo.On("AppendCharacter", ctx, int64(1), mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(campaign.Character) }).
		Return(&campaign.Character{ID: 1, Name: "Hero"}, nil)

	svc := campaign.NewService(repo, templates, nil)
	ch, err := svc.AddCharacter(ctx, 1, campaign.AddCharacterRequest{Name: "Hero"})
	require.NoError(t, err)
	require.Equal(t, int64(1), ch.ID)

	require.Equal(t, "Hero", captured.Name)
	require.Equal(t, "/uploads/1/default.png", captured.Icon)
	require.True(t, captured.Visible)
	require.Equal(t, templates["Generic"], captured.Stats)
	require.NotSame(t, templates["Generic"][0].Max, captured.Stats[0].Max)
}

func TestCampaignService_AddCharacterUnknownCampaign(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	repo.On("Get", ctx, int64(4)).Return((*campaign.Campaign)(nil), repository.ErrNotFound)

	svc := campaign.NewService(repo, templateStub{}, nil)
	_, err := svc.AddCharacter(ctx, 4, campaign.AddCharacterRequest{Name: "Hero"})
	require.ErrorIs(t, err, campaign.ErrCampaignNotFound)
}

func TestCampaignService_UpdateCharacterPassesClampPolicy(t *testing.T) {
	ctx := context.Background()
	current := &campaign.Character{ID: 1, Name: "Hero", Visible: true, Stats: []campaign.Stat{
		{Name: "HP", Value: campaign.NumberValue(10), Max: campaign.Int64(100)},
	}}
	patch := campaign.CharacterPatch{Stats: []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(150)}}}

	for _, policy := range []campaign.ClampPolicy{campaign.ClampRange, campaign.ClampNone} {
		t.Run(string(policy), func(t *testing.T) {
			repo := &mocks.CampaignRepository{}
			repo.On("GetCharacter", ctx, int64(1), int64(1)).Return(current, nil)
			repo.On("UpsertCharacter", ctx, int64(1), int64(1), patch, policy).Return(current, nil)

			svc := campaign.NewService(repo, nil, nil, campaign.WithClampPolicy(policy))
			_, err := svc.UpdateCharacter(ctx, 1, 1, patch)
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestCampaignService_UpdateCharacterKindMismatch(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CampaignRepository{}
	repo.On("GetCharacter", ctx, int64(1), int64(1)).Return(&campaign.Character{ID: 1, Stats: []campaign.Stat{
		{Name: "HP", Value: campaign.NumberValue(10), Max: campaign.Int64(100)},
	}}, nil)

	svc := campaign.NewService(repo, nil, nil)
	_, err := svc.UpdateCharacter(ctx, 1, 1, campaign.CharacterPatch{Stats: []campaign.Stat{
		{Name: "HP", Value: campaign.StringValue("full")},
	}})
	require.ErrorIs(t, err, campaign.ErrKindMismatch)
	repo.AssertNotCalled(t, "UpsertCharacter", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCampaignService_UpdateCharacterMissing(t *testing.T) {
	ctx := context.Background()
	name := "x"
	repo := &mocks.CampaignRepository{}
	repo.On("UpsertCharacter", ctx, int64(1), int64(7), mock.Anything, campaign.ClampRange).Return((*campaign.Character)(nil), repository.ErrNotFound)
	repo.On("Get", ctx, int64(1)).Return(&campaign.Campaign{ID: 1}, nil)

	svc := campaign.NewService(repo, nil, nil)
	_, err := svc.UpdateCharacter(ctx, 1, 7, campaign.CharacterPatch{Name: &name})
	require.ErrorIs(t, err, campaign.ErrCharacterNotFound)
}

// stallingRepository holds the first GetCharacter after it has read, until
// release is closed.
type stallingRepository struct {
	campaign.Repository
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (r *stallingRepository) GetCharacter(ctx context.Context, campaignID, characterID int64) (*campaign.Character, error) {
	ch, err := r.Repository.GetCharacter(ctx, campaignID, characterID)
	r.once.Do(func() {
		close(r.stalled)
		<-r.release
	})
	return ch, err
}

func TestCampaignService_ConcurrentUpdatesOfDifferentStats(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	repo := &stallingRepository{
		Repository: sqlite.NewCampaignRepository(db),
		stalled:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	templates := templateStub{"Generic": {
		{Name: "HP", Value: campaign.NumberValue(100), Max: campaign.Int64(100)},
		{Name: "Mana", Value: campaign.NumberValue(50), Max: campaign.Int64(50)},
	}}
	svc := campaign.NewService(repo, templates, nil)

	c, err := svc.Create(ctx, campaign.CreateRequest{Name: "Test", System: "Generic"})
	require.NoError(t, err)
	ch, err := svc.AddCharacter(ctx, c.ID, campaign.AddCharacterRequest{Name: "Hero"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.UpdateCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
			Stats: []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(40)}},
		})
		done <- err
	}()
	<-repo.stalled

	renamed := "Heroine"
	_, err = svc.UpdateCharacter(ctx, c.ID, ch.ID, campaign.CharacterPatch{
		Name:  &renamed,
		Stats: []campaign.Stat{{Name: "Mana", Value: campaign.NumberValue(7)}},
	})
	require.NoError(t, err)

	close(repo.release)
	require.NoError(t, <-done)

	stored, err := svc.GetCharacter(ctx, c.ID, ch.ID)
	require.NoError(t, err)
	require.Equal(t, "Heroine", stored.Name)
	hp, _, _ := stored.Stat("HP")
	mana, _, _ := stored.Stat("Mana")
	require.Equal(t, campaign.NumberValue(40), hp.Value)
	require.Equal(t, campaign.NumberValue(7), mana.Value)
}
