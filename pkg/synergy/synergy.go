// Package synergy computes emergent bonuses from combinations of the three core stats.
//
// Synergies are stateless and recomputed for every check.
package synergy

// Effect tags carried by synergy rules.
const (
	EffectDangerAutoSuccess    = "danger_auto_success"
	EffectInfoComboAutoSuccess = "info_combo_auto_success"
	EffectFearImmunity         = "fear_immunity"
	EffectAutoComboOnInvestig  = "auto_combo_on_investigate"
	EffectAutoDodgeOnDanger    = "auto_dodge_on_danger"
	EffectThinkDuringMadness   = "think_during_madness"
	EffectAllBonus20           = "all_bonus_20"
)

// Check contexts understood by ApplyBonus.
const (
	ContextGeneral         = "general"
	ContextDangerDetection = "danger_detection"
	ContextInfoCombination = "info_combination"
	ContextFear            = "fear"
)

// BalanceBonus is the flat target reduction granted by perfect_balance.
const BalanceBonus = 20

// Synergy is one active rule.
type Synergy struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Effect      string `json:"effect" yaml:"effect"`
	Description string `json:"description" yaml:"description"`
}

type rule struct {
	Synergy
	active func(p, i, w int) bool
}

func extreme(hi, lo1, lo2 int) bool {
	return hi >= 80 && lo1 <= 20 && lo2 <= 20
}

func balanced(v int) bool {
	return v >= 35 && v <= 45
}

// table is ordered; ApplyBonus folds effects in this order.
var table = []rule{
	{
		Synergy: Synergy{ID: "extreme_observer", Name: "극단 관찰자", Effect: EffectDangerAutoSuccess, Description: "위험 감지 자동 성공"},
		active:  func(p, i, w int) bool { return extreme(p, i, w) },
	},
	{
		Synergy: Synergy{ID: "extreme_scholar", Name: "극단 학자", Effect: EffectInfoComboAutoSuccess, Description: "정보 조합 자동 성공"},
		active:  func(p, i, w int) bool { return extreme(i, p, w) },
	},
	{
		Synergy: Synergy{ID: "extreme_survivor", Name: "극단 생존자", Effect: EffectFearImmunity, Description: "공포 완전 면역"},
		active:  func(p, i, w int) bool { return extreme(w, p, i) },
	},
	{
		Synergy: Synergy{ID: "sharp_analyst", Name: "예리한 분석가", Effect: EffectAutoComboOnInvestig, Description: "조사 성공 시 자동 정보 조합 시도"},
		active:  func(p, i, w int) bool { return p >= 50 && i >= 50 },
	},
	{
		Synergy: Synergy{ID: "tough_observer", Name: "강인한 관찰자", Effect: EffectAutoDodgeOnDanger, Description: "위험 감지 성공 시 함정 자동 회피"},
		active:  func(p, i, w int) bool { return p >= 50 && w >= 50 },
	},
	{
		Synergy: Synergy{ID: "philosopher", Name: "철학자", Effect: EffectThinkDuringMadness, Description: "광기 상태에서도 사고화 가능"},
		active:  func(p, i, w int) bool { return i >= 50 && w >= 50 },
	},
	{
		Synergy: Synergy{ID: "perfect_balance", Name: "완벽한 균형", Effect: EffectAllBonus20, Description: "모든 판정 +20%, 모든 페널티 -20%"},
		active:  func(p, i, w int) bool { return balanced(p) && balanced(i) && balanced(w) },
	},
}

// Check returns every synergy active for the given stats, in table order.
func Check(perception, intelligence, willpower int) []Synergy {
	var active []Synergy
	for _, r := range table {
		if r.active(perception, intelligence, willpower) {
			active = append(active, r.Synergy)
		}
	}
	return active
}

// Has reports whether a synergy with the given effect tag is present.
func Has(synergies []Synergy, effect string) bool {
	for _, s := range synergies {
		if s.Effect == effect {
			return true
		}
	}
	return false
}

// ApplyBonus folds applicable synergy effects into a target value.
// Auto-success forces the target to 1; perfect_balance lowers it by BalanceBonus.
func ApplyBonus(baseTarget int, synergies []Synergy, context string) int {
	target := baseTarget
	for _, s := range synergies {
		switch s.Effect {
		case EffectAllBonus20:
			target -= BalanceBonus
		case EffectDangerAutoSuccess:
			if context == ContextDangerDetection {
				target = 1
			}
		case EffectInfoComboAutoSuccess:
			if context == ContextInfoCombination {
				target = 1
			}
		}
	}
	return target
}

// IDs lists the ids of the given synergies.
func IDs(synergies []Synergy) []string {
	ids := make([]string, 0, len(synergies))
	for _, s := range synergies {
		ids = append(ids, s.ID)
	}
	return ids
}
