package state

import (
	"time"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

// Limits are the ceilings vitals are clamped to. The floor is always 0.
type Limits struct {
	HP        int `json:"hp"`
	Sanity    int `json:"sanity"`
	Hunger    int `json:"hunger"`
	Pollution int `json:"pollution"`
}

// DefaultLimits matches the live game: hunger tops out at 50.
var DefaultLimits = Limits{HP: 100, Sanity: 100, Hunger: 50, Pollution: 100}

// Ceiling returns the limit for a canonical resource.
func (l Limits) Ceiling(resource string) int {
	switch resource {
	case rules.ResourceHP:
		return l.HP
	case rules.ResourceSanity:
		return l.Sanity
	case rules.ResourceHunger:
		return l.Hunger
	case rules.ResourcePollution:
		return l.Pollution
	}
	return 0
}

// VitalState is the mutable per-character record. Day fields hold the
// "YYYY-MM-DD" of the last daily job applied, so a rerun on the same day is a no-op.
type VitalState struct {
	CharacterID    string `json:"character_id"`
	HP             int    `json:"hp"`
	Sanity         int    `json:"sanity"`
	Hunger         int    `json:"hunger"`
	Pollution      int    `json:"pollution"`
	HungerZeroDays int    `json:"hunger_zero_days"`

	LastHungerDay     string `json:"last_hunger_day,omitempty"`
	LastSanityDay     string `json:"last_sanity_day,omitempty"`
	LastStarvationDay string `json:"last_starvation_day,omitempty"`
	LastMadnessDay    string `json:"last_madness_day,omitempty"`
	LastRestDay       string `json:"last_rest_day,omitempty"`
}

// NewVitalState creates the record for a character seen for the first time.
func NewVitalState(characterID string, l Limits) VitalState {
	return VitalState{
		CharacterID: characterID,
		HP:          l.HP,
		Sanity:      l.Sanity,
		Hunger:      l.Hunger,
	}
}

// Get returns a canonical resource value.
func (v VitalState) Get(resource string) int {
	switch resource {
	case rules.ResourceHP:
		return v.HP
	case rules.ResourceSanity:
		return v.Sanity
	case rules.ResourceHunger:
		return v.Hunger
	case rules.ResourcePollution:
		return v.Pollution
	}
	return 0
}

func (v *VitalState) set(resource string, value int) {
	switch resource {
	case rules.ResourceHP:
		v.HP = value
	case rules.ResourceSanity:
		v.Sanity = value
	case rules.ResourceHunger:
		v.Hunger = value
	case rules.ResourcePollution:
		v.Pollution = value
	}
}

// Apply adds delta to a resource, saturating at 0 and the ceiling.
// It returns the change actually applied.
func (v *VitalState) Apply(resource string, delta int, l Limits) int {
	before := v.Get(resource)
	after := clamp(before+delta, 0, l.Ceiling(resource))
	v.set(resource, after)
	return after - before
}

// Starving reports whether hunger is exhausted.
func (v VitalState) Starving() bool {
	return v.Hunger <= 0
}

// SanityFraction is sanity as a fraction of its ceiling.
func (v VitalState) SanityFraction(l Limits) float64 {
	return rules.SanityFraction(v.Sanity, l.Sanity)
}

// Day formats t as the calendar day in loc used by the daily guards.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
