package system

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"gopkg.in/yaml.v3"
)

//go:embed systems.yaml
var builtinCatalog []byte

// Catalog is the set of known rule systems, in file order. It is safe for
// concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	systems map[string]System
	order   []string
}

// Builtin returns the catalog shipped with the server.
func Builtin() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("builtin system catalog: %v", err))
	}
	return c
}

// LoadFile reads a YAML (or JSON) catalog keyed by system name.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading system catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog keyed by system name.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(doc.Content) == 0 {
		return &Catalog{systems: map[string]System{}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a map of systems", ErrInvalidCatalog)
	}

	c := &Catalog{systems: make(map[string]System, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var raw rawSystem
		if err := root.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: system %q: %v", ErrInvalidCatalog, name, err)
		}
		sys, err := raw.toSystem(name)
		if err != nil {
			return nil, err
		}
		c.put(sys)
	}
	return c, nil
}

func (r rawSystem) toSystem(name string) (System, error) {
	sys := System{Name: name, Layout: r.Layout, Description: r.Description, Stats: make([]campaign.Stat, 0, len(r.Stats))}
	seen := make(map[string]bool, len(r.Stats))
	for _, rs := range r.Stats {
		if rs.Name == "" {
			return System{}, fmt.Errorf("%w: system %q has a stat without a name", ErrInvalidCatalog, name)
		}
		if seen[rs.Name] {
			return System{}, fmt.Errorf("%w: system %q repeats stat %q", ErrInvalidCatalog, name, rs.Name)
		}
		seen[rs.Name] = true

		v, err := campaign.ValueOf(rs.Value)
		if err != nil {
			return System{}, fmt.Errorf("%w: system %q stat %q: %v", ErrInvalidCatalog, name, rs.Name, err)
		}
		if rs.Max != nil && v.Kind != campaign.KindNumber {
			return System{}, fmt.Errorf("%w: system %q stat %q: only numbers can have a max", ErrInvalidCatalog, name, rs.Name)
		}
		sys.Stats = append(sys.Stats, campaign.Stat{Name: rs.Name, Value: v, Max: rs.Max, Color: rs.Color})
	}
	return sys, nil
}

func (c *Catalog) put(sys System) {
	if _, exists := c.systems[sys.Name]; !exists {
		c.order = append(c.order, sys.Name)
	}
	c.systems[sys.Name] = sys
}

// Register adds or replaces a system.
func (c *Catalog) Register(sys System) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sys.Stats = campaign.CloneStats(sys.Stats)
	c.put(sys)
}

// Get returns a copy of the named system.
func (c *Catalog) Get(name string) (System, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sys, ok := c.systems[name]
	if !ok {
		return System{}, fmt.Errorf("%w: %q", ErrSystemNotFound, name)
	}
	sys.Stats = campaign.CloneStats(sys.Stats)
	return sys, nil
}

// List returns every system in catalog order.
func (c *Catalog) List() []System {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]System, 0, len(c.order))
	for _, name := range c.order {
		sys := c.systems[name]
		sys.Stats = campaign.CloneStats(sys.Stats)
		out = append(out, sys)
	}
	return out
}

// Names returns the system names in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Template returns a fresh copy of the system's stats, or nil for an
// unknown system.
func (c *Catalog) Template(name string) []campaign.Stat {
	sys, err := c.Get(name)
	if err != nil {
		return nil
	}
	return sys.Stats
}

// LayoutFor returns the overlay layout configured for a system.
func (c *Catalog) LayoutFor(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systems[name].Layout
}
