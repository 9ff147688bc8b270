package rules

import "github.com/jwebster45206/inquest-engine/pkg/dice"

// HungerDecay is the daily hunger loss: 10 + willpower*0.04.
func HungerDecay(willpower int) int {
	return int(10 + float64(willpower)*0.04)
}

// SanityRecoveryThreshold is the hunger needed for daily sanity recovery: 30 + intelligence*0.2.
func SanityRecoveryThreshold(intelligence int) float64 {
	return 30 + float64(intelligence)*0.2
}

// SanityRecoveryAmount is the daily sanity regained: 10 + willpower/10.
func SanityRecoveryAmount(willpower int) int {
	return int(10 + float64(willpower)/10)
}

// StarvationDamage returns the hp and sanity lost on the given zero-hunger day.
func StarvationDamage(zeroDays int) (hp, sanity int) {
	switch {
	case zeroDays >= 3:
		return 20, 10
	case zeroDays == 2:
		return 10, 0
	default:
		return 0, 0
	}
}

// MadnessCheckTarget is the roll-under target when sanity hits zero: 10 - (intelligence-40)*0.6.
func MadnessCheckTarget(intelligence int) float64 {
	return 10 - (float64(intelligence)-40)*0.6
}

// ResistMadness rolls d100 under MadnessCheckTarget. It returns the roll and whether the character resisted.
func ResistMadness(r dice.Roller, intelligence int) (int, bool) {
	roll := dice.D100(r)
	return roll, float64(roll) <= MadnessCheckTarget(intelligence)
}

// MadnessRecoveryThreshold is the sanity needed before madness can fade: 50 + intelligence*0.3.
func MadnessRecoveryThreshold(intelligence int) float64 {
	return 50 + float64(intelligence)*0.3
}

// MadnessRecovers reports whether a roll beats a madness with the given recovery difficulty.
func MadnessRecovers(roll, difficulty int) bool {
	return roll >= 100-difficulty
}
