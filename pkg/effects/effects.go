// Package effects parses and applies the mutation language written in the
// result columns of investigation content.
//
// Grammar (EBNF):
//
//	program     = [ clause { "," clause } ] [ description ] .
//	clause      = [ space ] ( listop | statop ) [ space ] .
//	listop      = keyword sign value .
//	statop      = resource sign digits .
//	keyword     = "clue" | "trigger" | "item" | "block" | "spawn"
//	            | "move" | "위치이동" | "time" | "시간" .
//	resource    = "체력" | "정신력" | "허기" | "오염도" | "오염" | "hp" | "sanity" | ... .
//	sign        = "+" | "-" .
//	description = ( "description:" | "묘사:" ) { any } .
//
// The description runs to the end of the input and is never split on commas.
// Only clue, item and trigger accept "-"; spawn, move and time take "+".
package effects

// Kind is the type of one parsed mutation.
type Kind string

const (
	StatChange    Kind = "stat_change"
	TriggerAdd    Kind = "trigger_add"
	TriggerRemove Kind = "trigger_remove"
	ItemAdd       Kind = "item_add"
	ItemRemove    Kind = "item_remove"
	ClueAdd       Kind = "clue_add"
	BlockAdd      Kind = "block_add"
	Spawn         Kind = "spawn"
	Move          Kind = "move"
	TimePass      Kind = "time_pass"
)

// Effect is one mutation instruction.
type Effect struct {
	Kind   Kind   `json:"kind"`
	Value  string `json:"value,omitempty"` // trigger, item, clue, spawn or move target
	Stat   string `json:"stat,omitempty"`  // canonical resource for StatChange
	Amount int    `json:"amount,omitempty"`
	Raw    string `json:"raw"`
}

// Program is a parsed effect string.
type Program struct {
	Effects     []Effect `json:"effects"`
	Description string   `json:"description,omitempty"`
}

// Empty reports whether there is nothing to apply or show.
func (p Program) Empty() bool {
	return len(p.Effects) == 0 && p.Description == ""
}

// Values lists the targets of every effect of one kind, in order.
func (p Program) Values(kind Kind) []string {
	var out []string
	for _, e := range p.Effects {
		if e.Kind == kind {
			out = append(out, e.Value)
		}
	}
	return out
}

// descriptionMarkers start the free-text tail.
var descriptionMarkers = []string{"description:", "묘사:"}
