package overlay

import "github.com/rpggio/gmboard/internal/domain/campaign"

// Layout names.
const (
	LayoutGeneric                     = "generic"
	LayoutOrdemParanormal             = "ordem-paranormal"
	LayoutOrdemParanormalDeterminacao = "ordem-paranormal-determinacao"
	LayoutMythicBastionland           = "mythic-bastionland"
)

// VariationCompact hides the flags row.
const VariationCompact = "2"

// Generic draws every gauge as a bar and every other stat as a label.
type Generic struct{}

func (Generic) Name() string { return LayoutGeneric }

func (Generic) Render(ch campaign.Character, _ string) CharacterView {
	v := baseView(ch)
	for _, st := range ch.Stats {
		if st.IsGauge() {
			v.Gauges = append(v.Gauges, NewGauge(st))
		}
	}
	v.Flags = flagsOf(ch)
	return v
}

// OrdemParanormal shows Vida over Sanidade, or over Determinação in the
// Determinação variant, which also drops the Esforço badge.
type OrdemParanormal struct {
	Determinacao bool
}

func (l OrdemParanormal) Name() string {
	if l.Determinacao {
		return LayoutOrdemParanormalDeterminacao
	}
	return LayoutOrdemParanormal
}

func (l OrdemParanormal) Render(ch campaign.Character, variation string) CharacterView {
	v := baseView(ch)

	second := "Sanidade"
	if l.Determinacao {
		second = "Determinação"
	}
	for _, name := range []string{"Vida", second} {
		if st, _, ok := ch.Stat(name); ok {
			v.Gauges = append(v.Gauges, NewGauge(st))
		}
	}

	if !l.Determinacao {
		if st, _, ok := ch.Stat("Esforço"); ok {
			v.Badges = append(v.Badges, NewFlag(st))
		}
	}

	if variation != VariationCompact {
		v.Flags = flagsOf(ch)
	}
	return v
}

// MythicBastionland places the virtues, guard, armour and glory on fixed
// slots and marks fatigue.
type MythicBastionland struct{}

func (MythicBastionland) Name() string { return LayoutMythicBastionland }

var mythicSlots = []string{"Vigor", "Clareza", "Espirito", "Guarda", "Armadura", "Gloria"}

func (MythicBastionland) Render(ch campaign.Character, _ string) CharacterView {
	v := baseView(ch)
	v.Slots = make(map[string]Slot, len(mythicSlots))
	for _, name := range mythicSlots {
		st, _, ok := ch.Stat(name)
		if !ok {
			continue
		}
		slot := Slot{Value: DisplayValue(st.Value)}
		if st.Max != nil {
			slot.Max = campaign.NumberValue(*st.Max).String()
		}
		v.Slots[name] = slot
	}

	if st, _, ok := ch.Stat("Fatigado"); ok && st.Value.Kind == campaign.KindBoolean && st.Value.Bool {
		v.Markers = append(v.Markers, "fatigado")
	}
	return v
}
