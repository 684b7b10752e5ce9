package overlay

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidAddress indicates the overlay URL can't be resolved to a campaign.
var ErrInvalidAddress = errors.New("invalid overlay address")

// Address selects what an overlay shows.
type Address struct {
	CampaignID  int64
	CharacterID *int64
	Variation   string
}

// ParseAddress reads /overlay/{campaignId}/{characterId}/{variation}. Any
// prefix before the "overlay" segment is ignored. characterId and variation
// may also come from the query; path segments win.
func ParseAddress(path string, query url.Values) (Address, error) {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	var campaignRaw, characterRaw, variation string
	idx := indexOf(parts, "overlay")
	if idx >= 0 {
		campaignRaw = at(parts, idx+1)
		characterRaw = at(parts, idx+2)
		variation = at(parts, idx+3)
	}
	if campaignRaw == "" {
		campaignRaw = firstNonEmpty(query.Get("campaignId"), query.Get("id"))
	}
	if characterRaw == "" {
		characterRaw = query.Get("characterId")
	}
	if variation == "" {
		variation = query.Get("variation")
	}

	if campaignRaw == "" {
		return Address{}, fmt.Errorf("%w: campaign id is required", ErrInvalidAddress)
	}
	campaignID, err := strconv.ParseInt(campaignRaw, 10, 64)
	if err != nil || campaignID <= 0 {
		return Address{}, fmt.Errorf("%w: campaign id %q", ErrInvalidAddress, campaignRaw)
	}

	addr := Address{CampaignID: campaignID, Variation: variation}
	if characterRaw != "" {
		characterID, err := strconv.ParseInt(characterRaw, 10, 64)
		if err != nil {
			return Address{}, fmt.Errorf("%w: character id %q", ErrInvalidAddress, characterRaw)
		}
		addr.CharacterID = &characterID
	}
	return addr, nil
}

// Path renders the canonical overlay path for the address.
func (a Address) Path() string {
	var b strings.Builder
	b.WriteString("/overlay/")
	b.WriteString(strconv.FormatInt(a.CampaignID, 10))
	if a.CharacterID != nil {
		b.WriteString("/")
		b.WriteString(strconv.FormatInt(*a.CharacterID, 10))
		if a.Variation != "" {
			b.WriteString("/")
			b.WriteString(url.PathEscape(a.Variation))
		}
	} else if a.Variation != "" {
		b.WriteString("?variation=")
		b.WriteString(url.QueryEscape(a.Variation))
	}
	return b.String()
}

func indexOf(parts []string, want string) int {
	for i, p := range parts {
		if p == want {
			return i
		}
	}
	return -1
}

func at(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
