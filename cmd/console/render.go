package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/investigation"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

var outcomeLabels = map[rules.Outcome]string{
	rules.CriticalSuccess: "🌟 대성공",
	rules.Success:         "✅ 성공",
	rules.Failure:         "❌ 실패",
	rules.CriticalFailure: "💀 대실패",
}

func outcomeLabel(o rules.Outcome) string {
	if l, ok := outcomeLabels[o]; ok {
		return l
	}
	return string(o)
}

func renderScene(s *investigation.Scene) string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 %s\n", strings.Join(s.Path, " > "))
	if s.Description != "" {
		sb.WriteString("\n" + s.Description + "\n")
	}
	sb.WriteString("\n")
	for i, a := range s.Actions {
		marker := "  "
		switch a.Kind {
		case investigation.ActionBack:
			marker = "↩ "
		case investigation.ActionMove:
			marker = "→ "
		}
		line := fmt.Sprintf("%d. %s%s", i+1, marker, a.Label)
		if !a.Enabled {
			line += " (" + a.Reason + ")"
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderCheck(stat string, c rules.CheckResult) string {
	return fmt.Sprintf("🎲 %s 판정: %d / 목표 %d → %s", rules.DisplayName(stat), c.Roll, c.Target, outcomeLabel(c.Outcome))
}

func renderAct(res *investigation.ActResult) string {
	if res.Inert {
		if res.Reason != "" {
			return fmt.Sprintf("%s: 아무 일도 일어나지 않습니다. (%s)", res.ItemName, res.Reason)
		}
		return fmt.Sprintf("%s: 아무 일도 일어나지 않습니다.", res.ItemName)
	}

	var lines []string
	lines = append(lines, "🔍 "+res.ItemName)
	if res.Description != "" {
		lines = append(lines, res.Description)
	}
	for _, name := range res.Consumed {
		lines = append(lines, fmt.Sprintf("%s 1개를 사용했습니다.", name))
	}
	for _, resource := range slices.Sorted(maps.Keys(res.Costs)) {
		lines = append(lines, fmt.Sprintf("%s -%d", rules.DisplayName(resource), res.Costs[resource]))
	}

	switch {
	case res.Pending != nil:
		lines = append(lines, fmt.Sprintf("%s 판정이 필요합니다. /roll 로 주사위를 굴리세요.", rules.DisplayName(res.Pending.Stat)))
	case res.Resolution != nil:
		lines = append(lines, renderResolution(res.Resolution))
	case res.Type == content.TypeRitual:
		lines = append(lines, "의식을 준비합니다. /ritual 로 진행하세요.")
	case res.Type == content.TypeCombat:
		lines = append(lines, "전투가 시작됩니다! /combat 으로 파티원의 행동을 정하세요.")
	}
	lines = append(lines, renderAftermath(res.Madness, res.Incapacitation)...)
	return strings.Join(lines, "\n")
}

func renderResolution(res *investigation.Resolution) string {
	if res.Stale {
		return "⏳ 이미 처리되었거나 만료된 판정입니다."
	}
	var lines []string
	if res.Check != nil {
		lines = append(lines, renderCheck(res.Stat, *res.Check))
	}
	if res.Report != nil {
		if res.Report.Description != "" {
			lines = append(lines, res.Report.Description)
		}
		lines = append(lines, res.Report.Lines...)
	}
	if res.MovedTo != "" {
		lines = append(lines, "🚪 "+res.MovedTo+"(으)로 이동했습니다.")
	}
	for _, c := range res.Derived {
		lines = append(lines, "💡 새로운 정보: "+c.Name)
	}
	lines = append(lines, renderAftermath(res.Madness, res.Incapacitation)...)
	if len(lines) == 0 {
		return "아무 일도 일어나지 않았습니다."
	}
	return strings.Join(lines, "\n")
}

func renderAftermath(m *survival.MadnessResult, inc *state.Incapacitation) []string {
	var lines []string
	if m != nil && m.Checked {
		switch {
		case m.Resisted:
			lines = append(lines, fmt.Sprintf("🧠 광기 저항 성공 (%d / %d)", m.Roll, m.Target))
		case m.Acquired != nil:
			lines = append(lines, fmt.Sprintf("🌀 광기에 사로잡혔습니다: %s", m.Acquired.Name))
		}
	}
	if inc != nil && inc.Checked {
		if inc.Evaded {
			lines = append(lines, "🩸 가까스로 의식을 붙잡았습니다. (체력 1)")
		} else {
			lines = append(lines, "☠️ 행동 불능 상태가 되었습니다.")
		}
	}
	return lines
}

func renderRitual(res *investigation.RitualResult) string {
	if res.Stale {
		return "⏳ 이미 끝났거나 만료된 의식입니다."
	}
	var lines []string
	lines = append(lines, "🕯️ 의식")
	if res.Forfeit != "" {
		lines = append(lines, fmt.Sprintf("%s 판정을 포기했습니다.", rules.DisplayName(res.Forfeit)))
	}
	for _, c := range res.Checks {
		lines = append(lines, fmt.Sprintf("  %s: %s", c.PlayerID, renderCheck(c.Stat, c.Check)))
	}
	lines = append(lines, "결과: "+outcomeLabel(res.Outcome))
	if res.Resolution != nil {
		lines = append(lines, renderResolution(res.Resolution))
	}
	return strings.Join(lines, "\n")
}

func renderCombat(rep *investigation.CombatReport) string {
	if rep.Stale {
		return "⏳ 이미 끝났거나 만료된 전투입니다."
	}
	var lines []string
	lines = append(lines, "⚔️ 전투")
	for _, m := range rep.Members {
		lines = append(lines, fmt.Sprintf("  %s (%s): %s", m.PlayerID, m.Approach, renderCheck(m.Approach.Stat(), m.Check)))
		for _, l := range m.Lines {
			lines = append(lines, "    "+l)
		}
		for _, l := range renderAftermath(m.Madness, m.Incapacitation) {
			lines = append(lines, "    "+l)
		}
	}
	if rep.PartyEscape {
		lines = append(lines, "💨 파티 전원이 무사히 도주했습니다!")
	}
	return strings.Join(lines, "\n")
}
