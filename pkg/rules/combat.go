package rules

// Approach is a combat action, each tied to one core stat.
type Approach string

const (
	Observe Approach = "observe" // perception
	Analyze Approach = "analyze" // intelligence
	Flee    Approach = "flee"    // willpower
)

// Stat names the core stat rolled for the approach.
func (a Approach) Stat() string {
	switch a {
	case Observe:
		return StatPerception
	case Analyze:
		return StatIntelligence
	case Flee:
		return StatWillpower
	}
	return ""
}

// ApproachForStat maps a core stat back to its combat approach.
func ApproachForStat(stat string) (Approach, bool) {
	switch stat {
	case StatPerception:
		return Observe, true
	case StatIntelligence:
		return Analyze, true
	case StatWillpower:
		return Flee, true
	}
	return "", false
}

// Information unlocked by successful combat approaches.
const (
	InfoMonster  = "monster"
	InfoMechanic = "mechanic"
)

// CombatResult is the resource change for one member after a combat round.
type CombatResult struct {
	HP          int    `json:"hp"`
	Sanity      int    `json:"sanity"`
	Hunger      int    `json:"hunger"`
	Pollution   int    `json:"pollution"`
	Info        string `json:"info,omitempty"`
	SoloEscape  bool   `json:"solo_escape"`
	PartyEscape bool   `json:"party_escape"`
}

// CombatOutcome resolves one member's approach. Failures cost nothing.
func CombatOutcome(approach Approach, outcome Outcome) CombatResult {
	if !outcome.IsSuccess() {
		return CombatResult{}
	}
	switch approach {
	case Observe:
		return CombatResult{Sanity: -10, HP: -5, Info: InfoMonster}
	case Analyze:
		return CombatResult{Pollution: 8, Sanity: -10, HP: -8, Info: InfoMechanic}
	case Flee:
		if outcome == CriticalSuccess {
			return CombatResult{SoloEscape: true, PartyEscape: true}
		}
		return CombatResult{Hunger: -10, SoloEscape: true}
	}
	return CombatResult{}
}
