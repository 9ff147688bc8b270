package synergy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		p, i, w int
		want    []string
	}{
		{"extreme observer", 85, 10, 20, []string{"extreme_observer"}},
		{"extreme scholar", 5, 90, 0, []string{"extreme_scholar"}},
		{"extreme survivor", 20, 20, 80, []string{"extreme_survivor"}},
		{"sharp analyst", 50, 50, 10, []string{"sharp_analyst"}},
		{"tough observer", 60, 10, 55, []string{"tough_observer"}},
		{"philosopher", 10, 70, 70, []string{"philosopher"}},
		{"all dual", 50, 50, 50, []string{"sharp_analyst", "tough_observer", "philosopher"}},
		{"perfect balance", 40, 35, 45, []string{"perfect_balance"}},
		{"balance edge miss", 40, 34, 45, []string{}},
		{"nothing", 30, 30, 30, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDs(Check(tt.p, tt.i, tt.w))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck_ExtremesMutuallyExclusive(t *testing.T) {
	extremes := map[string]bool{"extreme_observer": true, "extreme_scholar": true, "extreme_survivor": true}
	for hi := 80; hi <= 100; hi += 5 {
		for lo1 := 0; lo1 <= 20; lo1 += 5 {
			for lo2 := 0; lo2 <= 20; lo2 += 5 {
				for _, triple := range [][3]int{{hi, lo1, lo2}, {lo1, hi, lo2}, {lo1, lo2, hi}} {
					count := 0
					for _, s := range Check(triple[0], triple[1], triple[2]) {
						if extremes[s.ID] {
							count++
						}
					}
					assert.Equal(t, 1, count, "triple %v", triple)
				}
				assert.True(t, Has(Check(hi, lo1, lo2), EffectDangerAutoSuccess))
			}
		}
	}
}

func TestApplyBonus(t *testing.T) {
	balance := Check(40, 40, 40)
	observer := Check(90, 10, 10)
	scholar := Check(10, 90, 10)

	assert.Equal(t, 24, ApplyBonus(44, balance, ContextGeneral))
	assert.Equal(t, 44, ApplyBonus(44, observer, ContextGeneral))
	assert.Equal(t, 1, ApplyBonus(44, observer, ContextDangerDetection))
	assert.Equal(t, 1, ApplyBonus(44, scholar, ContextInfoCombination))
	assert.Equal(t, 44, ApplyBonus(44, nil, ContextDangerDetection))
}

func TestApplyBonus_FoldsInOrder(t *testing.T) {
	// auto-success first, then the balance reduction applies to the forced value
	stacked := []Synergy{
		{ID: "extreme_observer", Effect: EffectDangerAutoSuccess},
		{ID: "perfect_balance", Effect: EffectAllBonus20},
	}
	assert.Equal(t, -19, ApplyBonus(50, stacked, ContextDangerDetection))
}
