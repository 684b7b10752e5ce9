package campaign

import (
	"strconv"
	"time"
)

// Campaign is a named game with a rule system and an ordered list of characters.
type Campaign struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	System     string      `json:"system"`
	CreatedAt  time.Time   `json:"date"`
	Characters []Character `json:"characters"`
}

// Character is one sheet inside a campaign. Stats keep the order of the
// system template they were created from.
type Character struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
	Stats   []Stat `json:"stats"`
}

// Stat is a named value. A stat with Max set is a gauge, otherwise a flag.
type Stat struct {
	Name  string    `json:"name"`
	Value StatValue `json:"value"`
	Max   *int64    `json:"max,omitempty"`
	Color string    `json:"color,omitempty"`
}

// IsGauge reports whether the stat has an upper bound.
func (s Stat) IsGauge() bool {
	return s.Max != nil
}

// Clone returns a copy that shares no memory with s.
func (s Stat) Clone() Stat {
	out := s
	if s.Max != nil {
		m := *s.Max
		out.Max = &m
	}
	return out
}

// CloneStats deep copies a stat list.
func CloneStats(stats []Stat) []Stat {
	if stats == nil {
		return nil
	}
	out := make([]Stat, len(stats))
	for i, st := range stats {
		out[i] = st.Clone()
	}
	return out
}

// Clone returns a deep copy of the character.
func (c Character) Clone() Character {
	out := c
	out.Stats = CloneStats(c.Stats)
	return out
}

// Stat finds a stat by name and returns its index.
func (c Character) Stat(name string) (Stat, int, bool) {
	for i, st := range c.Stats {
		if st.Name == name {
			return st, i, true
		}
	}
	return Stat{}, -1, false
}

// Clone returns a deep copy of the campaign.
func (c Campaign) Clone() Campaign {
	out := c
	if c.Characters != nil {
		out.Characters = make([]Character, len(c.Characters))
		for i, ch := range c.Characters {
			out.Characters[i] = ch.Clone()
		}
	}
	return out
}

// Character finds a character by id and returns its index.
func (c Campaign) Character(id int64) (Character, int, bool) {
	for i, ch := range c.Characters {
		if ch.ID == id {
			return ch, i, true
		}
	}
	return Character{}, -1, false
}

// Int64 returns a pointer to n, for building gauge maxima.
func Int64(n int64) *int64 {
	return &n
}

// DefaultIcon is the placeholder icon reference for a campaign.
func DefaultIcon(campaignID int64) string {
	return "/uploads/" + strconv.FormatInt(campaignID, 10) + "/default.png"
}
