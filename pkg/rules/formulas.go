// Package rules implements the numeric model: stat derivation, roll targets,
// outcome classification and the derived damage/recovery values.
//
// Every formula truncates toward zero. Fixtures depend on it.
package rules

import "github.com/jwebster45206/inquest-engine/pkg/dice"

// SanityAmplification scales sanity damage by current perception.
// Revisions used 0.003 and 0.005; 0.003 is canonical here.
var SanityAmplification = 0.003

// Hunger penalty fractions.
const (
	HungerPenaltyMild   = 0.05
	HungerPenaltySevere = 0.10
	// SevereHungerDays is the zero-hunger streak at which the severe penalty applies.
	SevereHungerDays = 3
)

// TargetValue converts a stat into a d100 target: 50 - (stat-40)*0.6.
// Higher stats give lower (easier) targets.
func TargetValue(stat int) int {
	return int(50 - (float64(stat)-40)*0.6)
}

// EffectiveStat scales a base stat by sanity: base * (0.7 + 0.3*fraction).
// The fraction is clamped to [0, 1].
func EffectiveStat(base int, sanityFraction float64) int {
	f := clampFraction(sanityFraction)
	return int(float64(base) * (0.7 + 0.3*f))
}

// HungerPenalty applies the flat deprivation penalty to a base stat:
// -10% once zeroDays reaches SevereHungerDays, otherwise -5%. Never negative.
func HungerPenalty(stat, zeroDays int) int {
	rate := HungerPenaltyMild
	if zeroDays >= SevereHungerDays {
		rate = HungerPenaltySevere
	}
	v := int(float64(stat) * (1 - rate))
	if v < 0 {
		return 0
	}
	return v
}

// SanityDamage amplifies psychological damage by perception.
func SanityDamage(base, perception int) int {
	return int(float64(base) * (1 + float64(perception)*SanityAmplification))
}

// FearDamage reduces fear damage by willpower/3 percent. Never negative.
func FearDamage(base, willpower int) int {
	reduction := float64(willpower) / 3
	v := int(float64(base) * (1 - reduction/100))
	if v < 0 {
		return 0
	}
	return v
}

// ThinkingProgress boosts deduction progress by intelligence percent.
func ThinkingProgress(base, intelligence int) int {
	return int(float64(base) * (1 + float64(intelligence)/100))
}

// IncapacitationEvasion rolls against a willpower/4 percent chance.
func IncapacitationEvasion(r dice.Roller, willpower int) bool {
	chance := float64(willpower) / 4
	return float64(dice.D100(r)) <= chance
}

// AutoCheck rolls d100 against TargetValue(stat). Used for madness resistance,
// danger detection and pollution detection.
func AutoCheck(r dice.Roller, stat int) bool {
	return dice.D100(r) >= TargetValue(stat)
}

// SanityFraction converts a sanity value into a [0, 1] fraction of ceiling.
func SanityFraction(sanity, ceiling int) float64 {
	if ceiling <= 0 {
		return 0
	}
	return clampFraction(float64(sanity) / float64(ceiling))
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
