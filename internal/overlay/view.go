package overlay

import "github.com/rpggio/gmboard/internal/domain/campaign"

// View is the render-ready overlay for one campaign.
type View struct {
	CampaignID   int64           `json:"campaign_id"`
	CampaignName string          `json:"campaign_name"`
	System       string          `json:"system"`
	Layout       string          `json:"layout"`
	Variation    string          `json:"variation,omitempty"`
	Characters   []CharacterView `json:"characters"`
}

// CharacterView is one character as a layout arranges it.
type CharacterView struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Icon    string          `json:"icon"`
	Color   string          `json:"color"`
	Gauges  []Gauge         `json:"gauges"`
	Flags   []Flag          `json:"flags"`
	Slots   map[string]Slot `json:"slots,omitempty"`
	Badges  []Flag          `json:"badges,omitempty"`
	Markers []string        `json:"markers,omitempty"`
}

// Gauge is a bounded stat drawn as a bar.
type Gauge struct {
	Name    string  `json:"name"`
	Value   int64   `json:"value"`
	Max     int64   `json:"max"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Color   string  `json:"color,omitempty"`
}

// Flag is an unbounded stat drawn as label and value.
type Flag struct {
	Name    string            `json:"name"`
	Kind    campaign.StatKind `json:"kind"`
	Display string            `json:"display"`
}

// Slot is a fixed position on a sheet-style layout.
type Slot struct {
	Value string `json:"value"`
	Max   string `json:"max,omitempty"`
}
