package system

import "github.com/rpggio/gmboard/internal/domain/campaign"

// System is a rule system: the stat template new characters start from and
// the overlay layout that renders them.
type System struct {
	Name        string          `json:"name" yaml:"-"`
	Layout      string          `json:"layout,omitempty" yaml:"layout"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Stats       []campaign.Stat `json:"stats" yaml:"-"`
}

// rawSystem is the file form; stat values are decoded by their YAML tag.
type rawSystem struct {
	Layout      string    `yaml:"layout"`
	Description string    `yaml:"description"`
	Stats       []rawStat `yaml:"stats"`
}

type rawStat struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Max   *int64 `yaml:"max"`
	Color string `yaml:"color"`
}
