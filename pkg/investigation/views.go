package investigation

import (
	"github.com/jwebster45206/inquest-engine/pkg/conditionals"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

// ClockFormat is the "HH:MM" layout time: conditions compare against.
const ClockFormat = "15:04"

// NewPlayerView snapshots a character for condition evaluation. Stats are
// the current derived values, not the base sheet.
func NewPlayerView(c *survival.Character, v state.VitalState, items []storage.ItemCount) conditionals.PlayerView {
	inv := make([]string, 0, len(items))
	for _, it := range items {
		if it.Count > 0 {
			inv = append(inv, it.Name)
		}
	}
	var skills []string
	if c.Spec != nil {
		skills = c.Spec.Skills
	}
	return conditionals.PlayerView{
		Stats:     c.Base.Current(v, c.Limits).Map(),
		Inventory: inv,
		HP:        v.HP,
		Sanity:    v.Sanity,
		Hunger:    v.Hunger,
		Pollution: v.Pollution,
		Skills:    skills,
	}
}

// NewWorldView snapshots a session for condition evaluation.
func NewWorldView(s *state.Session, triggers map[string]bool, counts map[string]int, clock string) conditionals.WorldView {
	return conditionals.WorldView{
		Triggers:          triggers,
		Time:              clock,
		LocationID:        s.LocationID,
		Members:           s.Members,
		InteractionCounts: counts,
	}
}
