package overlay

import "github.com/rpggio/gmboard/internal/domain/campaign"

// Resolver turns a campaign snapshot and an address into a View.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver. A nil registry means DefaultRegistry.
func NewResolver(registry *Registry) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Resolver{registry: registry}
}

// Registry returns the layouts the resolver dispatches to.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve keeps visible characters, narrows to the addressed one if any,
// and renders them with the campaign system's layout. Hidden characters are
// dropped even when addressed directly.
func (r *Resolver) Resolve(c campaign.Campaign, a Address) View {
	layout := r.registry.Lookup(c.System)
	view := View{
		CampaignID:   c.ID,
		CampaignName: c.Name,
		System:       c.System,
		Layout:       layout.Name(),
		Variation:    a.Variation,
		Characters:   []CharacterView{},
	}

	for _, ch := range c.Characters {
		if !ch.Visible {
			continue
		}
		if a.CharacterID != nil && ch.ID != *a.CharacterID {
			continue
		}
		view.Characters = append(view.Characters, layout.Render(ch, a.Variation))
	}
	return view
}
