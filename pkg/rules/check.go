package rules

import (
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/synergy"
)

// Core stat names.
const (
	StatPerception   = "perception"
	StatIntelligence = "intelligence"
	StatWillpower    = "willpower"
)

// CheckInput is everything needed to resolve one stat check.
type CheckInput struct {
	Base           int               // base stat before derivation
	SanityFraction float64           // current sanity / ceiling
	Starving       bool              // hunger at zero; enables the hunger penalty
	HungerZeroDays int               // consecutive days at zero hunger
	Synergies      []synergy.Synergy // active synergies for the character
	Context        string            // synergy context, e.g. synergy.ContextDangerDetection
}

// CheckResult records how a check was resolved.
type CheckResult struct {
	Roll      int     `json:"roll"`
	Effective int     `json:"effective"`
	Target    int     `json:"target"`
	Outcome   Outcome `json:"outcome"`
}

// Target derives the final target for an input: hunger penalty on the base
// stat, then sanity scaling, then the target formula and synergy bonuses.
func (in CheckInput) Target() (effective, target int) {
	base := in.Base
	if in.Starving {
		base = HungerPenalty(base, in.HungerZeroDays)
	}
	effective = EffectiveStat(base, in.SanityFraction)
	target = synergy.ApplyBonus(TargetValue(effective), in.Synergies, in.Context)
	return effective, target
}

// ClassifyCheck classifies an externally supplied roll against the input.
func ClassifyCheck(in CheckInput, roll int) CheckResult {
	effective, target := in.Target()
	return CheckResult{
		Roll:      roll,
		Effective: effective,
		Target:    target,
		Outcome:   ClassifyRoll(roll, target),
	}
}

// ResolveCheck rolls d100 and classifies it.
func ResolveCheck(r dice.Roller, in CheckInput) CheckResult {
	return ClassifyCheck(in, dice.D100(r))
}
