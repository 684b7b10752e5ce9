package campaign

import "fmt"

// CharacterPatch is a partial update. Nil fields are left untouched; stats
// are matched by name and only the listed ones change.
type CharacterPatch struct {
	Name    *string `json:"name,omitempty"`
	Icon    *string `json:"icon,omitempty"`
	Color   *string `json:"color,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Stats   []Stat  `json:"stats,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CharacterPatch) IsEmpty() bool {
	return p.Name == nil && p.Icon == nil && p.Color == nil && p.Visible == nil && len(p.Stats) == 0
}

// Merge applies the patch to a copy of c. The id never changes, stats can't
// be added and a stat keeps the kind it was created with.
func (c Character) Merge(p CharacterPatch) (Character, error) {
	out := c.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}

	for _, update := range p.Stats {
		current, idx, ok := out.Stat(update.Name)
		if !ok {
			return Character{}, fmt.Errorf("%w: %q", ErrUnknownStat, update.Name)
		}
		if update.Value.Kind != current.Value.Kind {
			return Character{}, fmt.Errorf("%w: stat %q is %s, got %s",
				ErrKindMismatch, update.Name, current.Value.Kind, update.Value.Kind)
		}
		if update.Max != nil && !current.IsGauge() {
			return Character{}, fmt.Errorf("%w: stat %q has no max", ErrInvalidInput, update.Name)
		}

		merged := current.Clone()
		merged.Value = update.Value
		if update.Max != nil {
			m := *update.Max
			merged.Max = &m
		}
		if update.Color != "" {
			merged.Color = update.Color
		}
		out.Stats[idx] = merged
	}
	return out, nil
}

// MergeClamped merges p and bounds the stats it names under policy. Stats
// the patch doesn't name are kept as stored.
func (c Character) MergeClamped(p CharacterPatch, policy ClampPolicy) (Character, error) {
	out, err := c.Merge(p)
	if err != nil {
		return Character{}, err
	}
	for _, update := range p.Stats {
		if st, idx, ok := out.Stat(update.Name); ok {
			out.Stats[idx] = policy.Clamp(st)
		}
	}
	return out, nil
}
