package rules

// Outcome is the degree of success of a single check.
type Outcome string

const (
	CriticalSuccess Outcome = "CRITICAL_SUCCESS"
	Success         Outcome = "SUCCESS"
	Failure         Outcome = "FAILURE"
	CriticalFailure Outcome = "CRITICAL_FAILURE"
)

// Fixed critical bands. They take precedence over the target comparison.
const (
	CriticalSuccessMin = 90
	CriticalFailureMax = 9
)

// IsSuccess reports success or critical success.
func (o Outcome) IsSuccess() bool {
	return o == Success || o == CriticalSuccess
}

// Valid reports whether o is one of the four outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case CriticalSuccess, Success, Failure, CriticalFailure:
		return true
	}
	return false
}

// ClassifyRoll classifies a d100 roll against a target.
func ClassifyRoll(roll, target int) Outcome {
	switch {
	case roll >= CriticalSuccessMin:
		return CriticalSuccess
	case roll <= CriticalFailureMax:
		return CriticalFailure
	case roll >= target:
		return Success
	default:
		return Failure
	}
}

// RitualOutcome aggregates member outcomes into one collective result.
// partySize selects the table: 1 (three rolls by one member), 2 (one stat
// forfeited), 3 or more.
func RitualOutcome(results []Outcome, partySize int) Outcome {
	var crit, succ, fail, critFail int
	for _, r := range results {
		switch r {
		case CriticalSuccess:
			crit++
		case Success:
			succ++
		case Failure:
			fail++
		case CriticalFailure:
			critFail++
		}
	}

	switch {
	case partySize <= 0 || len(results) == 0:
		return Failure

	case partySize == 1:
		if critFail > 0 {
			return CriticalFailure
		}
		if crit+succ == len(results) {
			return Success
		}
		return Failure

	case partySize == 2:
		if critFail > 0 {
			return CriticalFailure
		}
		if crit == len(results) {
			return CriticalSuccess
		}
		if crit+succ >= 1 {
			return Success
		}
		return Failure

	default:
		if critFail >= 2 {
			return CriticalFailure
		}
		if critFail >= 1 {
			return Failure
		}
		if crit >= 2 {
			return CriticalSuccess
		}
		if len(results) == 3 && crit == 1 && succ == 1 && fail == 1 {
			return Success
		}
		if crit+succ >= 2 {
			return Success
		}
		return Failure
	}
}
