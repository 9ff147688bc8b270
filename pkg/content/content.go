// Package content holds the authored investigation data: the location tree
// for each category, its interactive items and their variants, and the
// catalog records (items, clues, madness, clue recipes).
package content

import "github.com/jwebster45206/inquest-engine/pkg/rules"

// InteractionType decides how an item's action resolves.
type InteractionType string

const (
	TypeInvestigation InteractionType = "investigation"
	TypeAcquire       InteractionType = "acquire"
	TypeUse           InteractionType = "use"
	TypeRead          InteractionType = "read"
	TypeRitual        InteractionType = "ritual"
	TypeCombat        InteractionType = "combat"
	TypeOther         InteractionType = "other"
)

// NeedsRoll reports whether the action waits for a player's d100.
func (t InteractionType) NeedsRoll() bool {
	switch t {
	case TypeInvestigation, TypeAcquire, TypeUse, TypeRead:
		return true
	}
	return false
}

// DefaultStat is the stat rolled when the variant condition names none.
func (t InteractionType) DefaultStat() string {
	if t == TypeRead {
		return rules.StatIntelligence
	}
	return rules.StatPerception
}

// Variant is one conditional outcome branch. Lower Order wins.
type Variant struct {
	Order       int    `json:"order" yaml:"order,omitempty"`
	Condition   string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CritSuccess string `json:"crit_success,omitempty" yaml:"crit_success,omitempty"`
	Success     string `json:"success,omitempty" yaml:"success,omitempty"`
	Failure     string `json:"failure,omitempty" yaml:"failure,omitempty"`
	CritFailure string `json:"crit_failure,omitempty" yaml:"crit_failure,omitempty"`
}

// Result returns the effect string authored for an outcome. Critical results
// fall back to the plain result when left blank.
func (v Variant) Result(o rules.Outcome) string {
	switch o {
	case rules.CriticalSuccess:
		if v.CritSuccess != "" {
			return v.CritSuccess
		}
		return v.Success
	case rules.Success:
		return v.Success
	case rules.Failure:
		return v.Failure
	case rules.CriticalFailure:
		if v.CritFailure != "" {
			return v.CritFailure
		}
		return v.Failure
	}
	return ""
}

// Item is an interactive object at a location.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     InteractionType `json:"type"`
	Variants []Variant       `json:"variants"`
}

// Variant finds a variant by order.
func (it *Item) Variant(order int) (*Variant, bool) {
	for i := range it.Variants {
		if it.Variants[i].Order == order {
			return &it.Variants[i], true
		}
	}
	return nil, false
}

// ItemRecord is catalog data for an inventory item.
type ItemRecord struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"` // "음식" marks food
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	HungerRecovery int    `json:"hunger_recovery,omitempty" yaml:"hunger_recovery,omitempty"`
}

// ItemTypeFood is the catalog type of edible items.
const ItemTypeFood = "음식"

// IsFood reports whether the item can be eaten.
func (r ItemRecord) IsFood() bool {
	return r.Type == ItemTypeFood || r.Type == "food"
}

// Clue is display metadata for an acquirable clue.
type Clue struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MadnessRecord is one entry of the madness catalog.
type MadnessRecord struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	Description        string `json:"description,omitempty" yaml:"description,omitempty"`
	EffectType         string `json:"effect_type,omitempty" yaml:"effect_type,omitempty"`
	EffectValue        int    `json:"effect_value,omitempty" yaml:"effect_value,omitempty"`
	RecoveryDifficulty int    `json:"recovery_difficulty" yaml:"recovery_difficulty"`
}

// Recipe combines owned clues into a new one.
type Recipe struct {
	ID          string   `json:"id" yaml:"id"`
	Requires    []string `json:"requires" yaml:"requires"`
	Result      string   `json:"result" yaml:"result"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}
