package state

import (
	"errors"
	"testing"

	"github.com/jwebster45206/inquest-engine/pkg/dice"
)

var testStats = StatSet{Perception: 40, Intelligence: 50, Willpower: 60}

func TestDecayHunger_OncePerDay(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)

	v, ok := DecayHunger(v, testStats, "2026-01-01")
	if !ok || v.Hunger != 38 {
		t.Fatalf("first decay: ok=%v hunger=%d, want true 38", ok, v.Hunger)
	}
	v, ok = DecayHunger(v, testStats, "2026-01-01")
	if ok || v.Hunger != 38 {
		t.Fatalf("same day rerun must be a no-op: ok=%v hunger=%d", ok, v.Hunger)
	}
	v.Hunger = 5
	v, _ = DecayHunger(v, testStats, "2026-01-02")
	if v.Hunger != 0 {
		t.Errorf("hunger should floor at 0, got %d", v.Hunger)
	}
}

func TestRecoverSanity(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	v.Sanity = 50
	v.Hunger = 40 // threshold for intelligence 50 is 40.0

	v, res := RecoverSanity(v, testStats, "2026-01-01", DefaultLimits)
	if !res.Applied || res.Hungry || res.Recovered != 16 || v.Sanity != 66 {
		t.Fatalf("recovery: %+v sanity=%d", res, v.Sanity)
	}

	v, res = RecoverSanity(v, testStats, "2026-01-01", DefaultLimits)
	if res.Applied || v.Sanity != 66 {
		t.Fatalf("same day rerun must be a no-op: %+v", res)
	}

	v.Hunger = 39
	v, res = RecoverSanity(v, testStats, "2026-01-02", DefaultLimits)
	if !res.Hungry || res.Recovered != 0 || v.Sanity != 66 {
		t.Errorf("hungry character should not recover: %+v", res)
	}
}

func TestRest(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	v.Sanity = 95

	v, gained, err := Rest(v, testStats, "2026-01-01", DefaultLimits)
	if err != nil || gained != 5 || v.Sanity != 100 {
		t.Fatalf("rest: gained=%d sanity=%d err=%v", gained, v.Sanity, err)
	}
	if _, _, err = Rest(v, testStats, "2026-01-01", DefaultLimits); !errors.Is(err, ErrAlreadyRested) {
		t.Errorf("second rest: err=%v, want ErrAlreadyRested", err)
	}

	v.Hunger = 10
	if _, _, err = Rest(v, testStats, "2026-01-02", DefaultLimits); !errors.Is(err, ErrTooHungry) {
		t.Errorf("hungry rest: err=%v, want ErrTooHungry", err)
	}
}

func TestEat(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	if _, err := Eat(v, 15, DefaultLimits); !errors.Is(err, ErrFull) {
		t.Fatalf("eating while full: err=%v", err)
	}

	v.Hunger = 0
	v.HungerZeroDays = 4
	v, err := Eat(v, 30, DefaultLimits)
	if err != nil || v.Hunger != 30 || v.HungerZeroDays != 0 {
		t.Fatalf("eat: hunger=%d zeroDays=%d err=%v", v.Hunger, v.HungerZeroDays, err)
	}
	v, _ = Eat(v, 30, DefaultLimits)
	if v.Hunger != 50 {
		t.Errorf("hunger should cap at 50, got %d", v.Hunger)
	}
}

func TestStarve(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	if _, tick := Starve(v, "2026-01-01", DefaultLimits); tick.Applied {
		t.Fatal("fed character must not starve")
	}

	v.Hunger = 0
	days := []struct {
		day         string
		zeroDays    int
		hp, sanity  int
		hpDmg, sDmg int
	}{
		{"2026-01-01", 1, 100, 100, 0, 0},
		{"2026-01-02", 2, 90, 100, 10, 0},
		{"2026-01-03", 3, 70, 90, 20, 10},
		{"2026-01-04", 4, 50, 80, 20, 10},
	}
	for _, d := range days {
		var tick StarvationTick
		v, tick = Starve(v, d.day, DefaultLimits)
		if !tick.Applied || tick.ZeroDays != d.zeroDays || tick.HPDamage != d.hpDmg || tick.SanityDamage != d.sDmg {
			t.Errorf("%s: tick=%+v", d.day, tick)
		}
		if v.HP != d.hp || v.Sanity != d.sanity {
			t.Errorf("%s: hp=%d sanity=%d, want %d %d", d.day, v.HP, v.Sanity, d.hp, d.sanity)
		}
	}

	v, tick := Starve(v, "2026-01-04", DefaultLimits)
	if tick.Applied || v.HungerZeroDays != 4 {
		t.Errorf("same day rerun must be a no-op: %+v", tick)
	}
}

func TestCheckIncapacitation(t *testing.T) {
	v := NewVitalState("c1", DefaultLimits)
	if _, res := CheckIncapacitation(v, 80, dice.NewFixed(1)); res.Checked {
		t.Fatal("standing character must not be checked")
	}

	v.HP = 0
	got, res := CheckIncapacitation(v, 80, dice.NewFixed(20))
	if !res.Evaded || got.HP != 1 {
		t.Errorf("roll 20 vs chance 20 should evade: %+v hp=%d", res, got.HP)
	}
	got, res = CheckIncapacitation(v, 80, dice.NewFixed(21))
	if !res.Checked || res.Evaded || got.HP != 0 {
		t.Errorf("roll 21 vs chance 20 should fail: %+v hp=%d", res, got.HP)
	}
}
