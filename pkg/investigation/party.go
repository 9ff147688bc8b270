package investigation

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
	"github.com/jwebster45206/inquest-engine/pkg/synergy"
)

// ritualStats are rolled in this order.
var ritualStats = []string{rules.StatPerception, rules.StatIntelligence, rules.StatWillpower}

// forfeitCost is what a two-member party pays to skip one ritual stat.
type forfeitCost struct {
	Resource string
	Amount   int
}

var forfeitCosts = map[string]forfeitCost{
	rules.StatPerception:   {Resource: rules.ResourceHP, Amount: 15},
	rules.StatIntelligence: {Resource: rules.ResourceSanity, Amount: 15},
	rules.StatWillpower:    {Resource: rules.ResourceHunger, Amount: 20},
}

// MemberCheck is one member's roll in a party action.
type MemberCheck struct {
	PlayerID string            `json:"player_id"`
	Stat     string            `json:"stat"`
	Check    rules.CheckResult `json:"check"`
}

// RitualRequest carries the two-member forfeit. The ritual itself is the
// one Act left pending for the party.
type RitualRequest struct {
	Forfeit   string // stat skipped by a two-member party
	ForfeitBy string // member paying the forfeit; defaults to the caller
}

// RitualResult is the collective outcome of a ritual.
type RitualResult struct {
	Stale      bool          `json:"stale,omitempty"` // nothing was pending; nothing happened
	Checks     []MemberCheck `json:"checks"`
	Outcome    rules.Outcome `json:"outcome"`
	Forfeit    string        `json:"forfeit,omitempty"`
	Resolution *Resolution   `json:"resolution"`
}

// ResolveRitual rolls the ritual Act left pending. One member rolls all
// three stats; two members forfeit one stat at a cost and alternate on the
// other two; three or more roll one stat each. The result is applied to the
// leader. With nothing pending the result is marked Stale.
func (e *Engine) ResolveRitual(ctx context.Context, sessionID uuid.UUID, playerID string, req RitualRequest) (*RitualResult, error) {
	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}

	members := t.session.Members
	var forfeit, payer string
	if len(members) == 2 {
		var ok bool
		if forfeit, ok = rules.CanonicalStat(req.Forfeit); !ok {
			return nil, ErrForfeitRequired
		}
		payer = req.ForfeitBy
		if payer == "" {
			payer = playerID
		}
		if !t.session.IsMember(payer) {
			return nil, fmt.Errorf("%s: %w", payer, ErrNotMember)
		}
	}

	item, v, err := e.takePartyAction(ctx, t, content.TypeRitual)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &RitualResult{Stale: true}, nil
	}

	stats := ritualStats
	out := &RitualResult{}
	if forfeit != "" {
		cost := forfeitCosts[forfeit]
		var cs storage.Changeset
		applied, err := e.characters.ApplyChanges(ctx, payer, *cs.Stat(cost.Resource, -cost.Amount))
		if err != nil {
			return nil, fmt.Errorf("failed to pay ritual forfeit: %w", err)
		}
		if _, _, err := e.aftermath(ctx, payer, applied.After, cost.Resource == rules.ResourceSanity); err != nil {
			return nil, err
		}
		stats = slices.DeleteFunc(slices.Clone(stats), func(s string) bool { return s == forfeit })
		out.Forfeit = forfeit
	}

	outcomes := make([]rules.Outcome, 0, len(stats))
	for i, stat := range stats {
		member := members[0]
		if len(members) > 1 {
			member = members[i%len(members)]
		}
		c, vs, err := e.member(ctx, member)
		if err != nil {
			return nil, err
		}
		check := rules.ResolveCheck(e.roller, checkInput(c, vs, stat, synergy.ContextGeneral))
		out.Checks = append(out.Checks, MemberCheck{PlayerID: member, Stat: stat, Check: check})
		outcomes = append(outcomes, check.Outcome)
	}

	out.Outcome = rules.RitualOutcome(outcomes, len(members))
	leader := t.session.LeaderID
	if leader == "" {
		leader = members[0]
	}
	out.Resolution, err = e.resolve(ctx, t.session, t.tree, leader, item, v.Result(out.Outcome))
	if err != nil {
		return nil, err
	}
	out.Resolution.Outcome = out.Outcome
	e.logger.Info("ritual resolved", "session_id", sessionID, "item_id", item.ID, "members", len(members), "outcome", out.Outcome)
	return out, nil
}

// CombatRequest carries every member's chosen approach for the combat Act
// left pending.
type CombatRequest struct {
	Approaches map[string]rules.Approach // player id -> approach
}

// CombatMember is one member's side of a combat round.
type CombatMember struct {
	PlayerID       string                  `json:"player_id"`
	Approach       rules.Approach          `json:"approach"`
	Check          rules.CheckResult       `json:"check"`
	Result         rules.CombatResult      `json:"result"`
	Lines          []string                `json:"lines,omitempty"`
	Madness        *survival.MadnessResult `json:"madness,omitempty"`
	Incapacitation *state.Incapacitation   `json:"incapacitation,omitempty"`
}

// CombatReport is the outcome of one combat round.
type CombatReport struct {
	Stale       bool           `json:"stale,omitempty"` // nothing was pending; nothing happened
	Members     []CombatMember `json:"members"`
	PartyEscape bool           `json:"party_escape"`
	Count       int            `json:"count"`
}

// ResolveCombat rolls one round of the combat Act left pending. A critical
// flee gets the whole party out with no cost to anyone; otherwise each member
// takes their own result. With nothing pending the report is marked Stale.
func (e *Engine) ResolveCombat(ctx context.Context, sessionID uuid.UUID, playerID string, req CombatRequest) (*CombatReport, error) {
	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	for id := range req.Approaches {
		if !t.session.IsMember(id) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotMember)
		}
	}
	for _, member := range t.session.Members {
		if approach, ok := req.Approaches[member]; !ok || approach.Stat() == "" {
			return nil, fmt.Errorf("%s has no valid approach: %w", member, ErrPartyIncomplete)
		}
	}

	item, _, err := e.takePartyAction(ctx, t, content.TypeCombat)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &CombatReport{Stale: true}, nil
	}

	report := &CombatReport{}
	for _, member := range t.session.Members {
		approach := req.Approaches[member]
		c, vs, err := e.member(ctx, member)
		if err != nil {
			return nil, err
		}
		purpose := synergy.ContextGeneral
		if approach == rules.Observe {
			purpose = synergy.ContextDangerDetection
		}
		check := rules.ResolveCheck(e.roller, checkInput(c, vs, approach.Stat(), purpose))
		res := rules.CombatOutcome(approach, check.Outcome)
		report.PartyEscape = report.PartyEscape || res.PartyEscape
		report.Members = append(report.Members, CombatMember{PlayerID: member, Approach: approach, Check: check, Result: res})
	}

	if !report.PartyEscape {
		for i := range report.Members {
			if err := e.applyCombat(ctx, &report.Members[i]); err != nil {
				return nil, err
			}
		}
	}

	report.Count, err = e.sessions.IncrementCount(ctx, sessionID, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count interaction: %w", err)
	}
	e.logger.Info("combat resolved", "session_id", sessionID, "item_id", item.ID, "party_escape", report.PartyEscape)
	return report, nil
}

func (e *Engine) applyCombat(ctx context.Context, m *CombatMember) error {
	res := m.Result
	var cs storage.Changeset
	for _, d := range []struct {
		resource string
		delta    int
	}{
		{rules.ResourceHP, res.HP},
		{rules.ResourceSanity, res.Sanity},
		{rules.ResourceHunger, res.Hunger},
		{rules.ResourcePollution, res.Pollution},
	} {
		if d.delta != 0 {
			cs.Stat(d.resource, d.delta)
		}
	}
	if res.SoloEscape {
		m.Lines = append(m.Lines, "💨 도주 성공")
	}
	if res.Info != "" {
		m.Lines = append(m.Lines, "💡 정보: "+res.Info)
	}
	if cs.Empty() {
		return nil
	}

	applied, err := e.characters.ApplyChanges(ctx, m.PlayerID, cs)
	if err != nil {
		return fmt.Errorf("failed to apply combat result for %s: %w", m.PlayerID, err)
	}
	for i, op := range cs.Ops {
		m.Lines = append(m.Lines, fmt.Sprintf("%s %+d", rules.DisplayName(op.Resource), applied.Deltas[i]))
	}
	m.Madness, m.Incapacitation, err = e.aftermath(ctx, m.PlayerID, applied.After, res.Sanity < 0)
	return err
}

// takePartyAction claims the ritual or combat Act left pending. It returns
// a nil item when nothing is pending. An entry of the other party type is
// put back untouched.
func (e *Engine) takePartyAction(ctx context.Context, t *turn, want content.InteractionType) (*content.Item, *content.Variant, error) {
	pending, err := e.sessions.TakePendingParty(ctx, t.session.ID)
	if errors.Is(err, engineerr.ErrNoPendingRoll) {
		e.logger.Debug("ignoring party action without a pending act", "session_id", t.session.ID, "player_id", t.playerID, "type", want)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to take pending party action: %w", err)
	}

	_, item, err := t.tree.Item(pending.NodeID, pending.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if item.Type != want {
		if err := e.sessions.PutPendingParty(ctx, pending); err != nil {
			return nil, nil, fmt.Errorf("failed to restore pending party action: %w", err)
		}
		return nil, nil, fmt.Errorf("%s is %s, not %s: %w", item.ID, item.Type, want, ErrWrongType)
	}
	v, ok := item.Variant(pending.VariantOrder)
	if !ok {
		return nil, nil, fmt.Errorf("variant %d of %q: %w", pending.VariantOrder, item.ID, engineerr.ErrContentNotFound)
	}
	return item, v, nil
}

func (e *Engine) member(ctx context.Context, id string) (*survival.Character, state.VitalState, error) {
	c, err := survival.LoadCharacter(ctx, e.characters, id, e.limits)
	if err != nil {
		return nil, state.VitalState{}, err
	}
	v, err := e.characters.GetVitalState(ctx, id)
	if err != nil {
		return nil, state.VitalState{}, fmt.Errorf("failed to load vitals for %s: %w", id, err)
	}
	return c, v, nil
}
