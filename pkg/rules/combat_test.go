package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombatOutcome(t *testing.T) {
	tests := []struct {
		name     string
		approach Approach
		outcome  Outcome
		want     CombatResult
	}{
		{"observe success", Observe, Success, CombatResult{Sanity: -10, HP: -5, Info: InfoMonster}},
		{"observe crit", Observe, CriticalSuccess, CombatResult{Sanity: -10, HP: -5, Info: InfoMonster}},
		{"analyze success", Analyze, Success, CombatResult{Pollution: 8, Sanity: -10, HP: -8, Info: InfoMechanic}},
		{"flee success", Flee, Success, CombatResult{Hunger: -10, SoloEscape: true}},
		{"flee crit escapes party free", Flee, CriticalSuccess, CombatResult{SoloEscape: true, PartyEscape: true}},
		{"observe failure costs nothing", Observe, Failure, CombatResult{}},
		{"flee fumble costs nothing", Flee, CriticalFailure, CombatResult{}},
		{"unknown approach", Approach("hide"), Success, CombatResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombatOutcome(tt.approach, tt.outcome))
		})
	}
}

func TestApproachStatMapping(t *testing.T) {
	for _, a := range []Approach{Observe, Analyze, Flee} {
		back, ok := ApproachForStat(a.Stat())
		assert.True(t, ok)
		assert.Equal(t, a, back)
	}
	_, ok := ApproachForStat("charisma")
	assert.False(t, ok)
}
