package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jwebster45206/inquest-engine/internal/logger"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/investigation"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

const helpText = `Commands:
• <번호> - 선택지 실행
• /roll [1-100] - 대기 중인 판정 굴리기 (숫자 생략 시 자동)
• /ritual [감각|지식|의지] [대상] - 의식 진행 (2인 파티는 포기할 능력치 지정)
• /combat <observe|analyze|flee>... - 파티원 순서대로 전투 행동 지정
• /as <id> - 조작할 탐사자 전환
• /eat <아이템> - 음식 먹기
• /rest - 휴식 (하루 한 번)
• /inv - 소지품과 단서 보기
• /look - 현재 장소 다시 보기
• /back - 이전 장소로
• /copy - 기록을 클립보드로 복사
• /help - 도움말
• Ctrl+C - 종료
`

// command is one parsed line of console input.
type command struct {
	name string
	args []string
}

// parseCommand splits input into a command. A bare number picks an action.
func parseCommand(input string) (command, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	if _, err := strconv.Atoi(fields[0]); err == nil && len(fields) == 1 {
		return command{name: "pick", args: fields}, nil
	}
	if !strings.HasPrefix(fields[0], "/") {
		return command{}, fmt.Errorf("알 수 없는 입력: %s (/help 참고)", fields[0])
	}
	return command{name: strings.ToLower(strings.TrimPrefix(fields[0], "/")), args: fields[1:]}, nil
}

// play is the console's view of one running session.
type play struct {
	b       *backend
	log     *slog.Logger
	session *state.Session
	active  string
	scene   *investigation.Scene
	// last ritual or combat waiting for its resolve command
	waiting *investigation.ActResult
}

func newPlay(ctx context.Context, b *backend, category string, members []string) (*play, error) {
	s, err := b.engine.StartSession(ctx, category, members)
	if err != nil {
		return nil, err
	}
	p := &play{b: b, log: logger.WithSession(b.log, s.ID.String()), session: s, active: members[0]}
	if _, err := p.look(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *play) look(ctx context.Context) (string, error) {
	scene, err := p.b.engine.Look(ctx, p.session.ID, p.active)
	if err != nil {
		return "", err
	}
	p.scene = scene
	return renderScene(scene), nil
}

// exec runs one command and returns the transcript text it produced.
func (p *play) exec(ctx context.Context, cmd command) (string, error) {
	logger.WithCharacter(p.log, p.active).Debug("console command", "command", cmd.name, "args", cmd.args)
	switch cmd.name {
	case "pick":
		n, _ := strconv.Atoi(cmd.args[0])
		return p.pick(ctx, n)
	case "look":
		return p.look(ctx)
	case "back":
		mv, err := p.b.engine.Back(ctx, p.session.ID, p.active)
		if err != nil {
			return "", err
		}
		return p.moved(mv), nil
	case "roll":
		return p.roll(ctx, cmd.args)
	case "ritual":
		return p.ritual(ctx, cmd.args)
	case "combat":
		return p.combat(ctx, cmd.args)
	case "as":
		if len(cmd.args) != 1 || !p.session.IsMember(cmd.args[0]) {
			return "", fmt.Errorf("파티원: %s", strings.Join(p.session.Members, ", "))
		}
		p.active = cmd.args[0]
		out, err := p.look(ctx)
		return fmt.Sprintf("▶ %s 차례\n\n%s", p.active, out), err
	case "eat":
		if len(cmd.args) == 0 {
			return "", fmt.Errorf("사용법: /eat <아이템>")
		}
		name := strings.Join(cmd.args, " ")
		before, after, err := p.b.keeper.Eat(ctx, p.active, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🍞 %s을(를) 먹었습니다. 허기 %d → %d", name, before, after), nil
	case "rest":
		before, after, err := p.b.keeper.Rest(ctx, p.active, p.b.today())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💤 휴식을 취했습니다. 체력 %d → %d", before, after), nil
	case "inv":
		return p.b.inventory(ctx, p.active)
	case "help":
		return helpText, nil
	}
	return "", fmt.Errorf("알 수 없는 명령: /%s", cmd.name)
}

func (p *play) pick(ctx context.Context, n int) (string, error) {
	if p.scene == nil || n < 1 || n > len(p.scene.Actions) {
		return "", fmt.Errorf("선택지 번호가 올바르지 않습니다")
	}
	a := p.scene.Actions[n-1]
	if !a.Enabled {
		return "", fmt.Errorf("%s: %s", a.Label, a.Reason)
	}

	switch a.Kind {
	case investigation.ActionBack:
		mv, err := p.b.engine.Back(ctx, p.session.ID, p.active)
		if err != nil {
			return "", err
		}
		return p.moved(mv), nil
	case investigation.ActionMove:
		mv, err := p.b.engine.Advance(ctx, p.session.ID, p.active, a.TargetID)
		if err != nil {
			return "", err
		}
		return p.moved(mv), nil
	}

	res, err := p.b.engine.Act(ctx, p.session.ID, p.active, a.TargetID)
	if err != nil {
		return "", err
	}
	if !res.Inert && (res.Type == content.TypeRitual || res.Type == content.TypeCombat) {
		p.waiting = res
	}
	out := renderAct(res)
	if res.Resolution != nil && res.Resolution.MovedTo != "" {
		scene, err := p.look(ctx)
		if err != nil {
			return out, err
		}
		out += "\n\n" + scene
	}
	return out, nil
}

func (p *play) moved(mv *investigation.Move) string {
	if mv.Scene != nil {
		p.scene = mv.Scene
	}
	if !mv.Moved {
		return "🚫 " + mv.Reason
	}
	return renderScene(mv.Scene)
}

func (p *play) roll(ctx context.Context, args []string) (string, error) {
	var (
		res *investigation.Resolution
		err error
	)
	if len(args) > 0 {
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return "", fmt.Errorf("주사위 값은 숫자여야 합니다")
		}
		res, err = p.b.engine.SubmitRoll(ctx, p.session.ID, p.active, n)
	} else {
		res, err = p.b.engine.Roll(ctx, p.session.ID, p.active)
	}
	if err != nil {
		return "", err
	}
	out := renderResolution(res)
	if res.MovedTo != "" {
		scene, err := p.look(ctx)
		if err != nil {
			return out, err
		}
		out += "\n\n" + scene
	}
	return out, nil
}

func (p *play) ritual(ctx context.Context, args []string) (string, error) {
	if p.waiting == nil || p.waiting.Type != content.TypeRitual {
		return "", fmt.Errorf("진행 중인 의식이 없습니다")
	}
	var req investigation.RitualRequest
	if len(args) > 0 {
		stat, ok := rules.CanonicalStat(args[0])
		if !ok {
			return "", fmt.Errorf("알 수 없는 능력치: %s", args[0])
		}
		req.Forfeit = stat
	}
	if len(args) > 1 {
		req.ForfeitBy = args[1]
	}
	res, err := p.b.engine.ResolveRitual(ctx, p.session.ID, p.active, req)
	if errors.Is(err, investigation.ErrForfeitRequired) {
		return "", fmt.Errorf("2인 파티는 포기할 능력치를 지정해야 합니다: /ritual <감각|지식|의지>")
	}
	if err != nil {
		return "", err
	}
	p.waiting = nil
	return renderRitual(res), nil
}

func (p *play) combat(ctx context.Context, args []string) (string, error) {
	if p.waiting == nil || p.waiting.Type != content.TypeCombat {
		return "", fmt.Errorf("진행 중인 전투가 없습니다")
	}
	if len(args) != len(p.session.Members) {
		return "", fmt.Errorf("파티원 %d명 모두의 행동이 필요합니다 (%s)", len(p.session.Members), strings.Join(p.session.Members, ", "))
	}
	approaches := make(map[string]rules.Approach, len(args))
	for i, a := range args {
		ap := rules.Approach(strings.ToLower(a))
		if ap.Stat() == "" {
			return "", fmt.Errorf("알 수 없는 행동: %s", a)
		}
		approaches[p.session.Members[i]] = ap
	}
	rep, err := p.b.engine.ResolveCombat(ctx, p.session.ID, p.active, investigation.CombatRequest{Approaches: approaches})
	if err != nil {
		return "", err
	}
	p.waiting = nil
	return renderCombat(rep), nil
}

// friendly turns engine errors into player-facing text.
func friendly(err error) string {
	switch {
	case errors.Is(err, engineerr.ErrResourceInsufficient):
		return "자원이 부족합니다: " + err.Error()
	case errors.Is(err, engineerr.ErrNoPendingRoll):
		return "대기 중인 판정이 없습니다"
	case errors.Is(err, state.ErrAlreadyRested):
		return "오늘은 이미 휴식했습니다"
	case errors.Is(err, state.ErrFull):
		return "이미 배가 부릅니다"
	case errors.Is(err, survival.ErrNotFood):
		return "먹을 수 없는 아이템입니다"
	}
	return err.Error()
}
