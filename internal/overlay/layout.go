package overlay

import (
	"math"
	"strconv"
	"sync"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

// Layout arranges one character for a rule system.
type Layout interface {
	Name() string
	Render(ch campaign.Character, variation string) CharacterView
}

// Registry maps system tags to layouts and always has a default.
type Registry struct {
	mu       sync.RWMutex
	fallback Layout
	layouts  map[string]Layout
	bindings map[string]string
}

// NewRegistry creates a registry that falls back to def.
func NewRegistry(def Layout) *Registry {
	if def == nil {
		panic("overlay: registry needs a default layout")
	}
	r := &Registry{
		fallback: def,
		layouts:  make(map[string]Layout),
		bindings: make(map[string]string),
	}
	r.layouts[def.Name()] = def
	return r
}

// DefaultRegistry holds the built-in layouts bound to their system names.
func DefaultRegistry() *Registry {
	r := NewRegistry(Generic{})
	r.Register(OrdemParanormal{})
	r.Register(OrdemParanormal{Determinacao: true})
	r.Register(MythicBastionland{})
	r.Bind("Ordem Paranormal", LayoutOrdemParanormal)
	r.Bind("Ordem Paranormal - Determinação", LayoutOrdemParanormalDeterminacao)
	r.Bind("Mythic Bastionland", LayoutMythicBastionland)
	return r
}

// Register adds a layout under its name.
func (r *Registry) Register(l Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[l.Name()] = l
}

// Bind routes a system tag to a registered layout name. An empty layout
// name removes the binding.
func (r *Registry) Bind(system, layout string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if layout == "" {
		delete(r.bindings, system)
		return
	}
	r.bindings[system] = layout
}

// Lookup returns the layout for a system tag, or the default.
func (r *Registry) Lookup(system string) Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.bindings[system]; ok {
		if l, ok := r.layouts[name]; ok {
			return l
		}
	}
	if l, ok := r.layouts[system]; ok {
		return l
	}
	return r.fallback
}

// Default returns the fallback layout.
func (r *Registry) Default() Layout {
	return r.fallback
}

// NewGauge builds a bar for a bounded stat. Percent stays within [0, 100]
// and is 0 when the value isn't a number or max is 0.
func NewGauge(st campaign.Stat) Gauge {
	g := Gauge{Name: st.Name, Color: st.Color}
	if st.Max != nil {
		g.Max = *st.Max
	}
	if st.Value.Kind == campaign.KindNumber {
		g.Value = st.Value.Number
	}
	g.Label = st.Value.String() + " / " + strconv.FormatInt(g.Max, 10)

	if st.Value.Kind == campaign.KindNumber && g.Max != 0 {
		pct := float64(g.Value) / float64(g.Max) * 100
		g.Percent = math.Max(0, math.Min(100, pct))
	}
	return g
}

// NewFlag builds a label for an unbounded stat. Booleans read "Sim" or "Não".
func NewFlag(st campaign.Stat) Flag {
	return Flag{Name: st.Name, Kind: st.Value.Kind, Display: DisplayValue(st.Value)}
}

// DisplayValue renders a stat value for an overlay.
func DisplayValue(v campaign.StatValue) string {
	switch v.Kind {
	case campaign.KindBoolean:
		if v.Bool {
			return "Sim"
		}
		return "Não"
	case campaign.KindNumber, campaign.KindString:
		return v.String()
	default:
		return ""
	}
}

func baseView(ch campaign.Character) CharacterView {
	return CharacterView{
		ID:     ch.ID,
		Name:   ch.Name,
		Icon:   ch.Icon,
		Color:  ch.Color,
		Gauges: []Gauge{},
		Flags:  []Flag{},
	}
}

func flagsOf(ch campaign.Character) []Flag {
	flags := []Flag{}
	for _, st := range ch.Stats {
		if !st.IsGauge() {
			flags = append(flags, NewFlag(st))
		}
	}
	return flags
}
