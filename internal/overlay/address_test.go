package overlay

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		query     string
		campaign  int64
		character *int64
		variation string
	}{
		{name: "campaign only", path: "/overlay/3", campaign: 3},
		{name: "character in path", path: "/overlay/3/7", campaign: 3, character: ptr(7)},
		{name: "variation in path", path: "/overlay/3/7/2", campaign: 3, character: ptr(7), variation: "2"},
		{name: "query fallback", path: "/overlay/3", query: "characterId=5&variation=2", campaign: 3, character: ptr(5), variation: "2"},
		{name: "path wins", path: "/overlay/3/7/1", query: "characterId=5&variation=2", campaign: 3, character: ptr(7), variation: "1"},
		{name: "api prefix", path: "/api/overlay/4/", campaign: 4},
		{name: "campaign from query", path: "/", query: "id=9", campaign: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			addr, err := ParseAddress(tt.path, q)
			require.NoError(t, err)
			require.Equal(t, tt.campaign, addr.CampaignID)
			require.Equal(t, tt.character, addr.CharacterID)
			require.Equal(t, tt.variation, addr.Variation)
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, path := range []string{"/overlay", "/overlay/abc", "/overlay/0", "/overlay/1/x"} {
		_, err := ParseAddress(path, url.Values{})
		require.ErrorIs(t, err, ErrInvalidAddress, path)
	}
}

func TestAddressPath(t *testing.T) {
	require.Equal(t, "/overlay/3", Address{CampaignID: 3}.Path())
	require.Equal(t, "/overlay/3/7/2", Address{CampaignID: 3, CharacterID: ptr(7), Variation: "2"}.Path())
	require.Equal(t, "/overlay/3?variation=2", Address{CampaignID: 3, Variation: "2"}.Path())
}

func ptr(n int64) *int64 { return &n }
