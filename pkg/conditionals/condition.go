// Package conditionals parses and evaluates the content-gating language
// authored in the condition column of investigation content.
//
// A condition string is a comma-separated list of clauses:
//
//	trigger:power_on, !block:door_jammed, item:Key|Lockpick [consume], stat:감각:40 [visible]
//
// Each clause has the shape [!]type:value[options]. Clauses are ANDed by EvaluateAll.
package conditionals

import "strings"

// Kind is the closed set of clause types.
type Kind string

const (
	KindUnknown  Kind = ""
	KindTrigger  Kind = "trigger"
	KindBlock    Kind = "block"
	KindItem     Kind = "item"
	KindStat     Kind = "stat"
	KindTime     Kind = "time"
	KindInfect   Kind = "infection" // also authored as "pollution"
	KindLocation Kind = "location"
	KindMember   Kind = "member"
	KindCount    Kind = "count"
	KindCost     Kind = "cost"
	KindLanguage Kind = "language"
	KindSkill    Kind = "skill"
	KindForced   Kind = "forced"
)

var kindsByKeyword = map[string]Kind{
	"trigger":   KindTrigger,
	"block":     KindBlock,
	"item":      KindItem,
	"stat":      KindStat,
	"time":      KindTime,
	"infection": KindInfect,
	"pollution": KindInfect,
	"location":  KindLocation,
	"member":    KindMember,
	"count":     KindCount,
	"cost":      KindCost,
	"language":  KindLanguage,
	"skill":     KindSkill,
	"forced":    KindForced,
}

// Option tags recognised on a clause.
const (
	OptVisible = "visible" // failing clause hides instead of disabling
	OptHidden  = "hidden"  // passing clause hides
	OptConsume = "consume" // item clause consumes the matched item on use
)

// Op is a numeric comparison operator.
type Op int

const (
	OpGTE Op = iota // value >= Min (bare stat thresholds)
	OpEQ            // value == Min
	OpLT            // value < Min
	OpGT            // value > Min
	OpRange         // Min <= value <= Max
)

// Comparison is a pre-parsed numeric predicate.
type Comparison struct {
	Op  Op
	Min int
	Max int
}

// Match applies the comparison to v.
func (c Comparison) Match(v int) bool {
	switch c.Op {
	case OpGTE:
		return v >= c.Min
	case OpEQ:
		return v == c.Min
	case OpLT:
		return v < c.Min
	case OpGT:
		return v > c.Min
	case OpRange:
		return v >= c.Min && v <= c.Max
	}
	return false
}

// Condition is one parsed clause.
type Condition struct {
	Kind    Kind
	Value   string
	Options []string
	Negated bool
	Raw     string

	// Kind-specific parsed payload.
	Names   []string   // item, location: "|" alternatives
	Stat    string     // stat: canonical stat; cost: canonical resource
	Compare Comparison // stat, infection, member, count
	Amount  int        // cost
	From    int        // time: minutes after midnight
	To      int        // time: minutes after midnight
}

// HasOption reports whether the clause carries the option tag.
func (c Condition) HasOption(opt string) bool {
	for _, o := range c.Options {
		if strings.EqualFold(o, opt) {
			return true
		}
	}
	return false
}

// Set is an ordered list of clauses from one condition string.
type Set []Condition

// Of returns the clauses of the given kind.
func (s Set) Of(kind Kind) []Condition {
	var out []Condition
	for _, c := range s {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstStat returns the stat named by the first stat clause, if any.
func (s Set) FirstStat() (string, bool) {
	for _, c := range s {
		if c.Kind == KindStat {
			return c.Stat, true
		}
	}
	return "", false
}
