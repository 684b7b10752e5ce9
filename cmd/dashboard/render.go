package main

import (
	"time"

	"github.com/rpggio/gmboard/internal/client"
	"github.com/rpggio/gmboard/internal/overlay"
)

type stateLine struct {
	Status     client.Status   `json:"status"`
	Campaign   string          `json:"campaign,omitempty"`
	Characters []characterLine `json:"characters,omitempty"`
	Error      string          `json:"error,omitempty"`
	At         time.Time       `json:"at"`
}

type characterLine struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Visible bool              `json:"visible"`
	Stats   map[string]string `json:"stats"`
}

// summarize flattens a view state into one printable line per update.
func summarize(s client.ViewState) stateLine {
	line := stateLine{Status: s.Status, At: s.UpdatedAt}
	if s.Err != nil {
		line.Error = s.Err.Error()
	}
	if s.Campaign == nil {
		return line
	}
	line.Campaign = s.Campaign.Name
	for _, ch := range s.Campaign.Characters {
		stats := make(map[string]string, len(ch.Stats))
		for _, st := range ch.Stats {
			if st.IsGauge() {
				stats[st.Name] = overlay.NewGauge(st).Label
				continue
			}
			stats[st.Name] = overlay.DisplayValue(st.Value)
		}
		line.Characters = append(line.Characters, characterLine{
			ID:      ch.ID,
			Name:    ch.Name,
			Visible: ch.Visible,
			Stats:   stats,
		})
	}
	return line
}
