package conditionals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

func testPlayer() PlayerView {
	return PlayerView{
		Stats: map[string]int{
			rules.StatPerception:   55,
			rules.StatIntelligence: 40,
			rules.StatWillpower:    30,
		},
		Inventory: []string{"Key", "Candle"},
		HP:        80,
		Sanity:    60,
		Hunger:    20,
		Pollution: 25,
		Skills:    []string{"latin"},
	}
}

func TestEvaluate_BlockFlipsWithTrigger(t *testing.T) {
	c := MustParse("block:door_jammed")[0]
	w := WorldView{Triggers: map[string]bool{"door_jammed": true}}
	assert.False(t, Evaluate(c, testPlayer(), w))

	delete(w.Triggers, "door_jammed")
	assert.True(t, Evaluate(c, testPlayer(), w))
}

func TestEvaluate_ItemAlternatives(t *testing.T) {
	p := PlayerView{Inventory: []string{"Key"}}
	assert.True(t, Evaluate(MustParse("item:Key|Lockpick")[0], p, WorldView{}))
	assert.False(t, Evaluate(MustParse("item:Crowbar|Lockpick")[0], p, WorldView{}))
}

func TestEvaluate_Kinds(t *testing.T) {
	p := testPlayer()
	w := WorldView{
		Triggers:          map[string]bool{"power_on": true},
		Time:              "23:15",
		LocationID:        "hospital/ward_b",
		Members:           []string{"a", "b"},
		InteractionCounts: map[string]int{"ward_b/bed": 2},
		CurrentItemID:     "ward_b/bed",
	}

	tests := []struct {
		raw  string
		want bool
	}{
		{"trigger:power_on", true},
		{"trigger:power_off", false},
		{"!trigger:power_off", true},
		{"stat:감각:50", true},
		{"stat:지성:50", false},
		{"stat:의지:30-70", true},
		{"time:22:00-06:00", true},
		{"time:08:00-18:00", false},
		{"infection:<30", true},
		{"infection:>30", false},
		{"infection:20-30", true},
		{"infection:25", true},
		{"location:ward_b|ward_c", true},
		{"location:morgue", false},
		{"member:1-3", true},
		{"member:3-4", false},
		{"count:>1", true},
		{"count:2", true},
		{"count:<2", false},
		{"cost:허기:20", true},
		{"cost:체력:81", false},
		{"language:latin", true},
		{"skill:lockpicking", false},
		{"forced", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			set, errs := Parse(tt.raw)
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, Evaluate(set[0], p, w))
		})
	}
}

func TestEvaluate_CountWithoutItemIsZero(t *testing.T) {
	w := WorldView{InteractionCounts: map[string]int{"x": 4}}
	assert.True(t, Evaluate(MustParse("count:0")[0], PlayerView{}, w))
}

func TestEvaluate_TimeDefaultsToMidnight(t *testing.T) {
	assert.True(t, Evaluate(MustParse("time:23:00-01:00")[0], PlayerView{}, WorldView{}))
	assert.False(t, Evaluate(MustParse("time:01:00-02:00")[0], PlayerView{}, WorldView{}))
}

func TestEvaluateAll_EmptyIsAvailable(t *testing.T) {
	worlds := []WorldView{
		{},
		{Triggers: map[string]bool{"door_jammed": true}, Time: "03:00"},
	}
	for _, w := range worlds {
		got := EvaluateAll(Set{}, testPlayer(), w)
		assert.Equal(t, Result{Visible: true, Enabled: true}, got)
		got = EvaluateAll(nil, PlayerView{}, w)
		assert.Equal(t, Result{Visible: true, Enabled: true}, got)
	}
}

func TestEvaluateAll_BlockShortCircuits(t *testing.T) {
	set := MustParse("block:door_jammed, trigger:power_on[hidden]")
	w := WorldView{Triggers: map[string]bool{"door_jammed": true, "power_on": true}}

	got := EvaluateAll(set, testPlayer(), w)
	assert.False(t, got.Visible)
	assert.False(t, got.Enabled)
	assert.Equal(t, "차단됨: door_jammed", got.Reason)
}

func TestEvaluateAll_Options(t *testing.T) {
	p := testPlayer()
	w := WorldView{Triggers: map[string]bool{"found": true}}

	got := EvaluateAll(MustParse("trigger:power_on"), p, w)
	assert.True(t, got.Visible)
	assert.False(t, got.Enabled)
	assert.Equal(t, "조건 미달: trigger:power_on", got.Reason)

	got = EvaluateAll(MustParse("trigger:power_on[visible]"), p, w)
	assert.False(t, got.Visible)
	assert.True(t, got.Enabled)
	assert.Empty(t, got.Reason)

	got = EvaluateAll(MustParse("trigger:found[hidden]"), p, w)
	assert.False(t, got.Visible)
	assert.True(t, got.Enabled)

	got = EvaluateAll(MustParse("!trigger:found[hidden]"), p, w)
	assert.True(t, got.Visible)
	assert.False(t, got.Enabled)
}

func TestSet_ConsumablesAndCosts(t *testing.T) {
	set := MustParse("item:Lockpick|Key[consume], item:Candle, cost:허기:5, cost:hunger:3, cost:체력:10")
	p := testPlayer()

	assert.Equal(t, []string{"Key"}, set.Consumables(p))
	assert.Equal(t, map[string]int{rules.ResourceHunger: 8, rules.ResourceHP: 10}, set.Costs())

	stat, ok := MustParse("trigger:x, stat:지성:30, stat:감각:10").FirstStat()
	assert.True(t, ok)
	assert.Equal(t, rules.StatIntelligence, stat)
}
