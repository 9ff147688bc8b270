package actor

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
)

func testSpec() *InvestigatorSpec {
	return &InvestigatorSpec{
		ID:        "hana",
		Name:      "Hana",
		Stats:     state.StatSet{Perception: 70, Intelligence: 45, Willpower: 30},
		MaxHP:     80,
		Skills:    []string{"latin"},
		Modifiers: map[string]int{"bad_knee": -5},
	}
}

func TestNewInvestigator(t *testing.T) {
	inv, err := NewInvestigator(testSpec())
	if err != nil {
		t.Fatalf("NewInvestigator() error = %v", err)
	}

	if got := inv.Stats(); got != testSpec().Stats {
		t.Errorf("Stats() = %+v, want %+v", got, testSpec().Stats)
	}
	if v, ok := inv.Actor.Attribute(rules.StatPerception); !ok || v != 70 {
		t.Errorf("perception attribute = %d, %v", v, ok)
	}
	if inv.Actor.MaxHP() != 80 {
		t.Errorf("MaxHP() = %d, want 80", inv.Actor.MaxHP())
	}
	if got := inv.Modifiers()["bad_knee"]; got != -5 {
		t.Errorf("Modifiers()[bad_knee] = %d, want -5", got)
	}

	limits := inv.Limits(state.DefaultLimits)
	if limits.HP != 80 || limits.Hunger != 50 {
		t.Errorf("Limits() = %+v", limits)
	}
}

func TestNewInvestigator_Defaults(t *testing.T) {
	inv, err := NewInvestigator(&InvestigatorSpec{ID: "min"})
	if err != nil {
		t.Fatalf("NewInvestigator() error = %v", err)
	}
	if inv.Actor.MaxHP() != DefaultMaxHP {
		t.Errorf("MaxHP() = %d, want %d", inv.Actor.MaxHP(), DefaultMaxHP)
	}

	if _, err := NewInvestigator(nil); err == nil {
		t.Error("expected error for nil spec")
	}
	if _, err := NewInvestigator(&InvestigatorSpec{}); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestInvestigator_SyncHP(t *testing.T) {
	inv, err := NewInvestigator(testSpec())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want int
	}{
		{50, 50},
		{200, 80},
		{-3, 0},
	}
	for _, tt := range tests {
		if err := inv.SyncHP(tt.in); err != nil {
			t.Fatalf("SyncHP(%d) error = %v", tt.in, err)
		}
		if inv.Actor.HP() != tt.want {
			t.Errorf("SyncHP(%d): HP() = %d, want %d", tt.in, inv.Actor.HP(), tt.want)
		}
	}
}

func TestInvestigator_MarshalJSON(t *testing.T) {
	inv, err := NewInvestigator(testSpec())
	if err != nil {
		t.Fatal(err)
	}
	if err := inv.SyncHP(33); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(inv)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["id"] != "hana" || out["hp"] != float64(33) {
		t.Errorf("unexpected JSON: %s", data)
	}
}
