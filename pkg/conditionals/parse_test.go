package conditionals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

func TestParse_Empty(t *testing.T) {
	set, errs := Parse("   ")
	assert.Empty(t, errs)
	assert.NotNil(t, set)
	assert.Len(t, set, 0)
}

func TestParse_Clauses(t *testing.T) {
	set, errs := Parse("trigger:power_on, !block:door_jammed, item:Key|Lockpick[consume], stat:감각:40[visible]")
	require.Empty(t, errs)
	require.Len(t, set, 4)

	assert.Equal(t, KindTrigger, set[0].Kind)
	assert.Equal(t, "power_on", set[0].Value)

	assert.Equal(t, KindBlock, set[1].Kind)
	assert.True(t, set[1].Negated)

	assert.Equal(t, KindItem, set[2].Kind)
	assert.Equal(t, []string{"Key", "Lockpick"}, set[2].Names)
	assert.True(t, set[2].HasOption(OptConsume))

	assert.Equal(t, KindStat, set[3].Kind)
	assert.Equal(t, rules.StatPerception, set[3].Stat)
	assert.Equal(t, Comparison{Op: OpGTE, Min: 40}, set[3].Compare)
	assert.True(t, set[3].HasOption(OptVisible))
}

func TestParse_OptionGroupKeepsCommas(t *testing.T) {
	set, errs := Parse("trigger:a[visible,hidden], trigger:b[visible:consume]")
	require.Empty(t, errs)
	require.Len(t, set, 2)
	assert.Equal(t, []string{"visible", "hidden"}, set[0].Options)
	assert.Equal(t, []string{"visible", "consume"}, set[1].Options)
}

func TestParse_Comparisons(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
		want Comparison
	}{
		{"infection:<30", KindInfect, Comparison{Op: OpLT, Min: 30}},
		{"pollution:>50", KindInfect, Comparison{Op: OpGT, Min: 50}},
		{"infection:20-40", KindInfect, Comparison{Op: OpRange, Min: 20, Max: 40}},
		{"infection:10", KindInfect, Comparison{Op: OpEQ, Min: 10}},
		{"member:1-3", KindMember, Comparison{Op: OpRange, Min: 1, Max: 3}},
		{"count:0", KindCount, Comparison{Op: OpEQ, Min: 0}},
		{"stat:의지:30-70", KindStat, Comparison{Op: OpRange, Min: 30, Max: 70}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			set, errs := Parse(tt.raw)
			require.Empty(t, errs)
			require.Len(t, set, 1)
			assert.Equal(t, tt.kind, set[0].Kind)
			assert.Equal(t, tt.want, set[0].Compare)
		})
	}
}

func TestParse_TimeAndCost(t *testing.T) {
	set, errs := Parse("time:22:00-06:00, cost:허기:10")
	require.Empty(t, errs)
	require.Len(t, set, 2)
	assert.Equal(t, 22*60, set[0].From)
	assert.Equal(t, 6*60, set[0].To)
	assert.Equal(t, rules.ResourceHunger, set[1].Stat)
	assert.Equal(t, 10, set[1].Amount)
}

func TestParse_MalformedClausesAreSkipped(t *testing.T) {
	set, errs := Parse("trigger:ok, weather:rain, stat:감각, item:, time:25:00-01:00, forced")
	require.Len(t, set, 2)
	assert.Equal(t, KindTrigger, set[0].Kind)
	assert.Equal(t, KindForced, set[1].Kind)

	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.True(t, errors.Is(err, engineerr.ErrMalformedExpression), err.Error())
		var me *engineerr.MalformedError
		assert.True(t, errors.As(err, &me))
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, m)

	_, err = ParseClock("7")
	assert.Error(t, err)
	_, err = ParseClock("12:60")
	assert.Error(t, err)
}
