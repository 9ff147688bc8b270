package state

import (
	"errors"

	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

var (
	ErrAlreadyRested = errors.New("already rested today")
	ErrTooHungry     = errors.New("too hungry to rest")
	ErrFull          = errors.New("hunger already full")
)

// DecayHunger applies the daily hunger loss once per day.
func DecayHunger(v VitalState, base StatSet, day string) (VitalState, bool) {
	if v.LastHungerDay == day {
		return v, false
	}
	v.Hunger = max(0, v.Hunger-rules.HungerDecay(base.Willpower))
	v.LastHungerDay = day
	return v, true
}

// SanityRecovery describes the outcome of a recovery attempt.
type SanityRecovery struct {
	Applied   bool    // false when the day guard skipped it
	Recovered int     // sanity actually regained
	Threshold float64 // hunger required
	Hungry    bool    // hunger was below the threshold
}

// RecoverSanity applies the daily sanity recovery once per day. Recovery
// requires hunger at or above 30 + intelligence*0.2.
func RecoverSanity(v VitalState, base StatSet, day string, l Limits) (VitalState, SanityRecovery) {
	if v.LastSanityDay == day {
		return v, SanityRecovery{}
	}
	v.LastSanityDay = day
	res := SanityRecovery{Applied: true, Threshold: rules.SanityRecoveryThreshold(base.Intelligence)}
	if float64(v.Hunger) < res.Threshold {
		res.Hungry = true
		return v, res
	}
	res.Recovered = v.Apply(rules.ResourceSanity, rules.SanityRecoveryAmount(base.Willpower), l)
	return v, res
}

// Rest is the once-a-day player action with the same effect as the daily
// sanity recovery. A hungry character cannot rest.
func Rest(v VitalState, base StatSet, day string, l Limits) (VitalState, int, error) {
	if v.LastRestDay == day {
		return v, 0, ErrAlreadyRested
	}
	if float64(v.Hunger) < rules.SanityRecoveryThreshold(base.Intelligence) {
		return v, 0, ErrTooHungry
	}
	v.LastRestDay = day
	gained := v.Apply(rules.ResourceSanity, rules.SanityRecoveryAmount(base.Willpower), l)
	return v, gained, nil
}

// Eat restores hunger and resets the zero-hunger counter.
func Eat(v VitalState, recovery int, l Limits) (VitalState, error) {
	if v.Hunger >= l.Hunger {
		return v, ErrFull
	}
	v.Apply(rules.ResourceHunger, recovery, l)
	v.HungerZeroDays = 0
	return v, nil
}

// StarvationTick describes one day of starvation.
type StarvationTick struct {
	Applied      bool
	ZeroDays     int
	HPDamage     int
	SanityDamage int
}

// Starve advances the zero-hunger counter once per day and applies its damage.
// Characters who are not starving are untouched.
func Starve(v VitalState, day string, l Limits) (VitalState, StarvationTick) {
	if v.LastStarvationDay == day || !v.Starving() {
		return v, StarvationTick{}
	}
	v.LastStarvationDay = day
	v.HungerZeroDays++
	hp, sanity := rules.StarvationDamage(v.HungerZeroDays)
	tick := StarvationTick{Applied: true, ZeroDays: v.HungerZeroDays}
	tick.HPDamage = -v.Apply(rules.ResourceHP, -hp, l)
	tick.SanityDamage = -v.Apply(rules.ResourceSanity, -sanity, l)
	return v, tick
}

// Incapacitation is the result of a zero-hp check.
type Incapacitation struct {
	Checked bool // hp was at zero
	Evaded  bool // willpower kept the character standing at 1 hp
}

// CheckIncapacitation rolls willpower evasion for a character at zero hp.
// willpower is the current (derived) stat.
func CheckIncapacitation(v VitalState, willpower int, r dice.Roller) (VitalState, Incapacitation) {
	if v.HP > 0 {
		return v, Incapacitation{}
	}
	if rules.IncapacitationEvasion(r, willpower) {
		v.HP = 1
		return v, Incapacitation{Checked: true, Evaded: true}
	}
	return v, Incapacitation{Checked: true}
}
