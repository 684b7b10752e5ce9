package mutation_test

import (
	"context"
	"testing"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/stretchr/testify/require"
)

type storeStub struct {
	current *campaign.Character
	patches []campaign.CharacterPatch
}

func (s *storeStub) GetCharacter(context.Context, int64, int64) (*campaign.Character, error) {
	if s.current == nil {
		return nil, campaign.ErrCharacterNotFound
	}
	return s.current, nil
}

func (s *storeStub) UpdateCharacter(_ context.Context, _, _ int64, patch campaign.CharacterPatch) (*campaign.Character, error) {
	s.patches = append(s.patches, patch)
	merged, err := s.current.Merge(patch)
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *storeStub) ClampPolicy() campaign.ClampPolicy {
	return campaign.ClampRange
}

func TestService_ApplyWritesPatch(t *testing.T) {
	current := sheet()
	store := &storeStub{current: &current}
	svc := mutation.NewService(store, nil)

	ch, err := svc.Apply(context.Background(), 1, 1, mutation.Mutation{Field: mutation.FieldStatValue, StatName: "HP", Value: "50"})
	require.NoError(t, err)
	require.Equal(t, int64(50), ch.Stats[0].Value.Number)
	require.Len(t, store.patches, 1)
	require.Len(t, store.patches[0].Stats, 1)
}

func TestService_ApplyNoopSkipsWrite(t *testing.T) {
	current := sheet()
	store := &storeStub{current: &current}
	svc := mutation.NewService(store, nil)

	_, err := svc.Apply(context.Background(), 1, 1, mutation.Mutation{Field: mutation.FieldStatValue, StatName: "HP", Value: 100})
	require.NoError(t, err)
	require.Empty(t, store.patches)
}

func TestService_ApplyMissingCharacter(t *testing.T) {
	svc := mutation.NewService(&storeStub{}, nil)
	_, err := svc.Apply(context.Background(), 1, 9, mutation.Mutation{Field: mutation.FieldName, Value: "x"})
	require.ErrorIs(t, err, campaign.ErrCharacterNotFound)
}
