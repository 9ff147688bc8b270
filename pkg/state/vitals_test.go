package state

import (
	"testing"
	"time"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

func TestVitalState_ApplyClamps(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		start    int
		delta    int
		want     int
		applied  int
	}{
		{"hp floor", rules.ResourceHP, 5, -10, 0, -5},
		{"hp ceiling", rules.ResourceHP, 95, 20, 100, 5},
		{"hunger ceiling is 50", rules.ResourceHunger, 45, 30, 50, 5},
		{"sanity plain", rules.ResourceSanity, 60, -15, 45, -15},
		{"pollution accumulates", rules.ResourcePollution, 10, 8, 18, 8},
		{"unknown resource", "mana", 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVitalState("c1", DefaultLimits)
			v.set(tt.resource, tt.start)
			got := v.Apply(tt.resource, tt.delta, DefaultLimits)
			if got != tt.applied {
				t.Errorf("applied = %d, want %d", got, tt.applied)
			}
			if v.Get(tt.resource) != tt.want {
				t.Errorf("value = %d, want %d", v.Get(tt.resource), tt.want)
			}
		})
	}
}

func TestNewVitalState(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	if v.HP != 100 || v.Sanity != 100 || v.Hunger != 50 || v.Pollution != 0 {
		t.Errorf("unexpected initial vitals: %+v", v)
	}
	if v.Starving() {
		t.Error("new character should not be starving")
	}
}

func TestStatSet_Current(t *testing.T) {
	base := StatSet{Perception: 50, Intelligence: 80, Willpower: 100}

	v := NewVitalState("c1", DefaultLimits)
	if got := base.Current(v, DefaultLimits); got != base {
		t.Errorf("full sanity should keep base stats, got %+v", got)
	}

	v.Sanity = 50
	got := base.Current(v, DefaultLimits)
	if got.Intelligence != 68 || got.Willpower != 85 {
		t.Errorf("half sanity: got %+v", got)
	}

	v.Sanity = 100
	v.Hunger = 0
	v.HungerZeroDays = 3
	got = base.Current(v, DefaultLimits)
	if got.Perception != 45 || got.Willpower != 90 {
		t.Errorf("starving: got %+v", got)
	}
}

func TestDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	ts := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
	if got := Day(ts, seoul); got != "2026-03-02" {
		t.Errorf("Day = %s, want 2026-03-02", got)
	}
	if got := Day(ts, nil); got != "2026-03-01" {
		t.Errorf("Day = %s, want 2026-03-01", got)
	}
}
