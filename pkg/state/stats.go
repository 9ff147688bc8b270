package state

import "github.com/jwebster45206/inquest-engine/pkg/rules"

// StatSet is the three core attributes of an investigator.
type StatSet struct {
	Perception   int `json:"perception" yaml:"perception"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Willpower    int `json:"willpower" yaml:"willpower"`
}

// Get returns a stat by canonical name. Unknown names return 0.
func (s StatSet) Get(name string) int {
	switch name {
	case rules.StatPerception:
		return s.Perception
	case rules.StatIntelligence:
		return s.Intelligence
	case rules.StatWillpower:
		return s.Willpower
	}
	return 0
}

// Map returns the stats keyed by canonical name.
func (s StatSet) Map() map[string]int {
	return map[string]int{
		rules.StatPerception:   s.Perception,
		rules.StatIntelligence: s.Intelligence,
		rules.StatWillpower:    s.Willpower,
	}
}

// Current derives the in-play stats from vitals: the hunger penalty while
// starving, then sanity scaling.
func (s StatSet) Current(v VitalState, l Limits) StatSet {
	frac := rules.SanityFraction(v.Sanity, l.Sanity)
	derive := func(base int) int {
		if v.Starving() {
			base = rules.HungerPenalty(base, v.HungerZeroDays)
		}
		return rules.EffectiveStat(base, frac)
	}
	return StatSet{
		Perception:   derive(s.Perception),
		Intelligence: derive(s.Intelligence),
		Willpower:    derive(s.Willpower),
	}
}
