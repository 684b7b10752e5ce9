package mutation

import "github.com/rpggio/gmboard/internal/domain/campaign"

// Patch builds the store patch that turns before into after. Only fields
// and stats that differ are included.
func Patch(before, after campaign.Character) campaign.CharacterPatch {
	var p campaign.CharacterPatch
	if before.Name != after.Name {
		name := after.Name
		p.Name = &name
	}
	if before.Icon != after.Icon {
		icon := after.Icon
		p.Icon = &icon
	}
	if before.Color != after.Color {
		color := after.Color
		p.Color = &color
	}
	if before.Visible != after.Visible {
		visible := after.Visible
		p.Visible = &visible
	}

	for _, st := range after.Stats {
		prev, _, ok := before.Stat(st.Name)
		if ok && statEqual(prev, st) {
			continue
		}
		p.Stats = append(p.Stats, st.Clone())
	}
	return p
}

func statEqual(a, b campaign.Stat) bool {
	if a.Value != b.Value || a.Color != b.Color {
		return false
	}
	if (a.Max == nil) != (b.Max == nil) {
		return false
	}
	return a.Max == nil || *a.Max == *b.Max
}
