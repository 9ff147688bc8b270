package conditionals

import (
	"slices"
	"strings"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

// PlayerView is a read-only snapshot of the acting character.
type PlayerView struct {
	Stats     map[string]int // canonical stat name -> current value
	Inventory []string
	HP        int
	Sanity    int
	Hunger    int
	Pollution int
	Skills    []string
}

// Resource returns the current value of a canonical resource.
func (p PlayerView) Resource(name string) int {
	switch name {
	case rules.ResourceHP:
		return p.HP
	case rules.ResourceSanity:
		return p.Sanity
	case rules.ResourceHunger:
		return p.Hunger
	case rules.ResourcePollution:
		return p.Pollution
	}
	return 0
}

// Has reports whether the inventory holds the named item.
func (p PlayerView) Has(item string) bool {
	return slices.Contains(p.Inventory, item)
}

// WorldView is a read-only snapshot of the session the action happens in.
type WorldView struct {
	Triggers          map[string]bool
	Time              string // "HH:MM"
	LocationID        string
	Members           []string
	InteractionCounts map[string]int
	CurrentItemID     string
}

// Result is the folded outcome of a condition list.
type Result struct {
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Evaluate reports whether a single clause holds. Negation is applied last.
// A block clause holds while its trigger is absent.
func Evaluate(c Condition, p PlayerView, w WorldView) bool {
	result := false
	switch c.Kind {
	case KindTrigger:
		result = w.Triggers[c.Value]
	case KindBlock:
		result = !w.Triggers[c.Value]
	case KindItem:
		result = slices.ContainsFunc(c.Names, p.Has)
	case KindStat:
		result = c.Compare.Match(p.Stats[c.Stat])
	case KindTime:
		result = inWindow(w.Time, c.From, c.To)
	case KindInfect:
		result = c.Compare.Match(p.Pollution)
	case KindLocation:
		result = slices.ContainsFunc(c.Names, func(loc string) bool {
			return strings.Contains(w.LocationID, loc)
		})
	case KindMember:
		result = c.Compare.Match(len(w.Members))
	case KindCount:
		count := 0
		if w.CurrentItemID != "" {
			count = w.InteractionCounts[w.CurrentItemID]
		}
		result = c.Compare.Match(count)
	case KindCost:
		result = p.Resource(c.Stat) >= c.Amount
	case KindLanguage, KindSkill:
		result = slices.Contains(p.Skills, c.Value)
	case KindForced:
		result = true
	case KindUnknown:
	}

	if c.Negated {
		result = !result
	}
	return result
}

func inWindow(now string, from, to int) bool {
	if now == "" {
		now = "00:00"
	}
	t, err := ParseClock(now)
	if err != nil {
		return false
	}
	if from <= to {
		return from <= t && t <= to
	}
	return t >= from || t <= to
}

// EvaluateAll folds every clause into a single Result. A failing block clause
// short-circuits to hidden and disabled. A failing clause tagged [visible]
// hides the content; any other failing clause disables it. A passing clause
// tagged [hidden] hides it.
func EvaluateAll(set Set, p PlayerView, w WorldView) Result {
	res := Result{Visible: true, Enabled: true}
	var reasons []string

	for _, c := range set {
		passed := Evaluate(c, p, w)
		if c.Kind == KindBlock && !passed {
			res.Visible = false
			res.Enabled = false
			reasons = append(reasons, "차단됨: "+c.Value)
			break
		}

		if !passed {
			if c.HasOption(OptVisible) {
				res.Visible = false
			} else {
				res.Enabled = false
				reasons = append(reasons, "조건 미달: "+c.Raw)
			}
		}
		if passed && c.HasOption(OptHidden) {
			res.Visible = false
		}
	}

	res.Reason = strings.Join(reasons, ", ")
	return res
}

// Consumables lists the item names a [consume] item clause would use up,
// choosing the first alternative present in the inventory.
func (s Set) Consumables(p PlayerView) []string {
	var out []string
	for _, c := range s.Of(KindItem) {
		if c.Negated || !c.HasOption(OptConsume) {
			continue
		}
		for _, name := range c.Names {
			if p.Has(name) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// Costs sums the cost clauses per canonical resource.
func (s Set) Costs() map[string]int {
	costs := map[string]int{}
	for _, c := range s.Of(KindCost) {
		if c.Negated {
			continue
		}
		costs[c.Stat] += c.Amount
	}
	return costs
}
