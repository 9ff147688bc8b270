package actor

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
)

// DefaultMaxHP is used when a spec leaves MaxHP unset.
const DefaultMaxHP = 100

// baseAC is fixed; investigators never make armor-class rolls.
const baseAC = 10

// InvestigatorSpec is the serializable roster entry for a player character.
type InvestigatorSpec struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Stats      state.StatSet  `json:"stats" yaml:"stats"`
	MaxHP      int            `json:"max_hp,omitempty" yaml:"max_hp,omitempty"`
	Skills     []string       `json:"skills,omitempty" yaml:"skills,omitempty"` // languages and skills for skill:/language: gates
	Modifiers  map[string]int `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Attributes map[string]int `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Investigator is the runtime character: its spec plus a d20.Actor holding
// base attributes and hit points.
type Investigator struct {
	Spec  *InvestigatorSpec
	Actor *d20.Actor
}

// NewInvestigator builds the d20.Actor for a spec.
func NewInvestigator(spec *InvestigatorSpec) (*Investigator, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("investigator id is required")
	}

	maxHP := spec.MaxHP
	if maxHP <= 0 {
		maxHP = DefaultMaxHP
	}

	attrs := spec.Stats.Map()
	maps.Copy(attrs, spec.Attributes)

	a, err := d20.NewActor(spec.ID).
		WithHP(maxHP).
		WithAC(baseAC).
		WithAttributes(attrs).
		WithCombatModifiers(spec.Modifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	return &Investigator{Spec: spec, Actor: a}, nil
}

// Stats reads the core stats back from the actor.
func (inv *Investigator) Stats() state.StatSet {
	get := func(key string) int {
		if v, ok := inv.Actor.Attribute(key); ok {
			return v
		}
		return 0
	}
	return state.StatSet{
		Perception:   get(rules.StatPerception),
		Intelligence: get(rules.StatIntelligence),
		Willpower:    get(rules.StatWillpower),
	}
}

// Limits returns the vital ceilings for this character, taking MaxHP from the actor.
func (inv *Investigator) Limits(base state.Limits) state.Limits {
	base.HP = inv.Actor.MaxHP()
	return base
}

// SyncHP mirrors the stored hp onto the actor, clamped to [0, MaxHP].
func (inv *Investigator) SyncHP(hp int) error {
	hp = max(0, min(hp, inv.Actor.MaxHP()))
	if err := inv.Actor.SetHP(hp); err != nil {
		return fmt.Errorf("failed to set HP: %w", err)
	}
	return nil
}

// Modifiers returns the standing modifiers by reason.
func (inv *Investigator) Modifiers() map[string]int {
	out := make(map[string]int)
	for _, mod := range inv.Actor.GetCombatModifiers() {
		out[mod.Reason] = mod.Value
	}
	return out
}

// MarshalJSON writes the spec with the actor's current hp.
func (inv *Investigator) MarshalJSON() ([]byte, error) {
	if inv == nil {
		return []byte("null"), nil
	}
	type response struct {
		InvestigatorSpec
		HP int `json:"hp"`
	}
	resp := response{}
	if inv.Spec != nil {
		resp.InvestigatorSpec = *inv.Spec
	}
	if inv.Actor != nil {
		resp.HP = inv.Actor.HP()
		resp.Stats = inv.Stats()
	}
	return json.Marshal(resp)
}
