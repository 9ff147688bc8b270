package investigation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/conditionals"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/effects"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
	"github.com/jwebster45206/inquest-engine/pkg/synergy"
)

// Resolution is what one resolved action did.
type Resolution struct {
	Stale          bool                    `json:"stale,omitempty"` // late or duplicate roll; nothing happened
	PlayerID       string                  `json:"player_id"`
	ItemID         string                  `json:"item_id,omitempty"`
	ItemName       string                  `json:"item_name,omitempty"`
	Stat           string                  `json:"stat,omitempty"`
	Check          *rules.CheckResult      `json:"check,omitempty"`
	Outcome        rules.Outcome           `json:"outcome,omitempty"`
	Text           string                  `json:"text,omitempty"` // authored result string
	Report         *effects.Report         `json:"report,omitempty"`
	MovedTo        string                  `json:"moved_to,omitempty"`
	Madness        *survival.MadnessResult `json:"madness,omitempty"`
	Incapacitation *state.Incapacitation   `json:"incapacitation,omitempty"`
	Count          int                     `json:"count,omitempty"` // interactions with the item so far
	Derived        []content.Clue          `json:"derived,omitempty"` // clues combined after the action
}

// ActResult is the first phase of an item action.
type ActResult struct {
	Inert        bool                    `json:"inert,omitempty"` // no variant is enabled
	Reason       string                  `json:"reason,omitempty"`
	ItemID       string                  `json:"item_id"`
	ItemName     string                  `json:"item_name"`
	Type         content.InteractionType `json:"type"`
	VariantOrder int                     `json:"variant_order,omitempty"`
	Description  string                  `json:"description,omitempty"`
	Consumed     []string                `json:"consumed,omitempty"`
	Costs        map[string]int          `json:"costs,omitempty"`

	// Pending is set for roll types; SubmitRoll finishes the action. Rituals
	// and combat are held per party for ResolveRitual or ResolveCombat.
	Pending *state.PendingRoll `json:"pending,omitempty"`
	// Resolution is set for types that resolve at once.
	Resolution *Resolution `json:"resolution,omitempty"`

	Madness        *survival.MadnessResult `json:"madness,omitempty"`
	Incapacitation *state.Incapacitation   `json:"incapacitation,omitempty"`
}

// Act selects the item's variant and pays its consumption and costs. Roll
// types leave a pending roll; rituals and combat wait for ResolveRitual or
// ResolveCombat; everything else resolves immediately. If a cost cannot be
// paid the error wraps engineerr.ErrResourceInsufficient and nothing changes.
func (e *Engine) Act(ctx context.Context, sessionID uuid.UUID, playerID, itemID string) (*ActResult, error) {
	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	item, ok := t.node.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("item %q at %q: %w", itemID, t.node.ID, engineerr.ErrContentNotFound)
	}

	res := &ActResult{ItemID: item.ID, ItemName: item.Name, Type: item.Type}
	v, ok := SelectVariant(item, t.player, t.world)
	if !ok {
		a, _ := itemAction(item, t.player, t.world)
		res.Inert = true
		res.Reason = a.Reason
		return res, nil
	}
	res.VariantOrder = v.Order
	res.Description = v.Description

	e.warnMalformed(v.Condition)
	set := parseCondition(v.Condition)
	if err := e.pay(ctx, t, set, res); err != nil {
		return nil, fmt.Errorf("failed to pay for %s: %w", item.Name, err)
	}

	switch {
	case item.Type.NeedsRoll():
		stat, ok := set.FirstStat()
		if !ok {
			stat = item.Type.DefaultStat()
		}
		roll := &state.PendingRoll{
			ID:           uuid.New(),
			SessionID:    sessionID,
			PlayerID:     playerID,
			NodeID:       t.node.ID,
			ItemID:       item.ID,
			VariantOrder: v.Order,
			Stat:         stat,
			CreatedAt:    e.now(),
		}
		if err := e.sessions.PutPendingRoll(ctx, roll); err != nil {
			return nil, fmt.Errorf("failed to store pending roll: %w", err)
		}
		res.Pending = roll

	case item.Type == content.TypeRitual, item.Type == content.TypeCombat:
		action := &state.PendingRoll{
			ID:           uuid.New(),
			SessionID:    sessionID,
			PlayerID:     playerID,
			NodeID:       t.node.ID,
			ItemID:       item.ID,
			VariantOrder: v.Order,
			CreatedAt:    e.now(),
		}
		if err := e.sessions.PutPendingParty(ctx, action); err != nil {
			return nil, fmt.Errorf("failed to store pending party action: %w", err)
		}

	default:
		text := v.Success
		if text == "" {
			text = v.Description
		}
		r, err := e.resolve(ctx, t.session, t.tree, playerID, item, text)
		if err != nil {
			return nil, err
		}
		res.Resolution = r
	}
	return res, nil
}

// pay consumes [consume] items and cost: resources in one changeset.
func (e *Engine) pay(ctx context.Context, t *turn, set conditionals.Set, res *ActResult) error {
	var cs storage.Changeset
	consumed := set.Consumables(t.player)
	for _, name := range consumed {
		cs.Consume(name)
	}
	costs := set.Costs()
	for _, resource := range slices.Sorted(maps.Keys(costs)) {
		cs.Cost(resource, costs[resource])
	}
	if cs.Empty() {
		return nil
	}

	applied, err := e.characters.ApplyChanges(ctx, t.playerID, cs)
	if err != nil {
		return err
	}
	res.Consumed = consumed
	res.Costs = costs
	res.Madness, res.Incapacitation, err = e.aftermath(ctx, t.playerID, applied.After, costs[rules.ResourceSanity] > 0)
	return err
}

// SubmitRoll resolves the player's pending roll with an externally rolled
// d100. A missing entry is not an error: the result is marked Stale.
func (e *Engine) SubmitRoll(ctx context.Context, sessionID uuid.UUID, playerID string, roll int) (*Resolution, error) {
	if roll < 1 || roll > 100 {
		return nil, fmt.Errorf("%d: %w", roll, ErrInvalidRoll)
	}
	pending, err := e.sessions.TakePendingRoll(ctx, sessionID, playerID)
	if errors.Is(err, engineerr.ErrNoPendingRoll) {
		e.logger.Debug("ignoring roll without a pending action", "session_id", sessionID, "player_id", playerID, "roll", roll)
		return &Resolution{Stale: true, PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take pending roll: %w", err)
	}

	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	_, item, err := t.tree.Item(pending.NodeID, pending.ItemID)
	if err != nil {
		return nil, err
	}
	v, ok := item.Variant(pending.VariantOrder)
	if !ok {
		return nil, fmt.Errorf("variant %d of %q: %w", pending.VariantOrder, item.ID, engineerr.ErrContentNotFound)
	}

	in := checkInput(t.char, t.vitals, pending.Stat, synergy.ContextGeneral)
	check := rules.ClassifyCheck(in, roll)
	r, err := e.resolve(ctx, t.session, t.tree, playerID, item, v.Result(check.Outcome))
	if err != nil {
		return nil, err
	}
	r.Stat = pending.Stat
	r.Check = &check
	r.Outcome = check.Outcome

	if e.keeper != nil && item.Type == content.TypeInvestigation && check.Outcome.IsSuccess() &&
		synergy.Has(in.Synergies, synergy.EffectAutoComboOnInvestig) {
		r.Derived, err = e.keeper.CombineClues(ctx, playerID)
		if err != nil {
			return nil, err
		}
	}
	e.logger.Info("roll resolved", "session_id", sessionID, "player_id", playerID, "item_id", item.ID,
		"stat", pending.Stat, "roll", roll, "target", check.Target, "outcome", check.Outcome)
	return r, nil
}

// Roll resolves the pending roll with the engine's own die.
func (e *Engine) Roll(ctx context.Context, sessionID uuid.UUID, playerID string) (*Resolution, error) {
	return e.SubmitRoll(ctx, sessionID, playerID, dice.D100(e.roller))
}

func checkInput(c *survival.Character, v state.VitalState, stat, purpose string) rules.CheckInput {
	return rules.CheckInput{
		Base:           c.Base.Get(stat),
		SanityFraction: v.SanityFraction(c.Limits),
		Starving:       v.Starving(),
		HungerZeroDays: v.HungerZeroDays,
		Synergies:      synergy.Check(c.Base.Perception, c.Base.Intelligence, c.Base.Willpower),
		Context:        purpose,
	}
}

// resolve applies an authored result for one player, follows any move,
// runs the madness and incapacitation hooks and counts the interaction. The
// party is moved before the effects commit and moved back if they fail.
func (e *Engine) resolve(ctx context.Context, s *state.Session, tree *content.Tree, playerID string, item *content.Item, text string) (*Resolution, error) {
	prog := e.effects.Parse(text)
	r := &Resolution{
		PlayerID: playerID,
		ItemID:   item.ID,
		ItemName: item.Name,
		Text:     text,
	}

	var from string
	if target := e.moveTarget(s.ID, tree, prog.Values(effects.Move)); target != "" {
		prev, err := e.relocate(ctx, s.ID, target)
		if err != nil {
			return nil, err
		}
		from, r.MovedTo = prev, target
	}

	report, err := e.effects.Apply(ctx, playerID, s.ID, prog)
	if err != nil {
		if r.MovedTo != "" {
			if _, rerr := e.relocate(ctx, s.ID, from); rerr != nil {
				e.logger.Error("failed to move party back", "session_id", s.ID, "node_id", from, "error", rerr)
			}
		}
		return nil, err
	}
	r.Report = report

	r.Madness, r.Incapacitation, err = e.aftermath(ctx, playerID, report.Vitals, report.MadnessCheck)
	if err != nil {
		return nil, err
	}

	// a failed count does not undo the action
	r.Count, err = e.sessions.IncrementCount(ctx, s.ID, item.ID)
	if err != nil {
		e.logger.Warn("failed to count interaction", "session_id", s.ID, "item_id", item.ID, "error", err)
	}
	return r, nil
}

// moveTarget picks the last move target that exists in the tree.
func (e *Engine) moveTarget(sessionID uuid.UUID, tree *content.Tree, moves []string) string {
	for _, id := range slices.Backward(moves) {
		if _, err := tree.Node(id); err == nil {
			return id
		}
		e.logger.Warn("move target missing from tree", "session_id", sessionID, "node_id", id)
	}
	return ""
}

// relocate moves the party and returns where it was.
func (e *Engine) relocate(ctx context.Context, sessionID uuid.UUID, target string) (string, error) {
	unlock := e.lock(sessionID)
	defer unlock()
	s, err := e.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if s == nil {
		return "", fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	prev := s.LocationID
	s.LocationID = target
	if err := e.sessions.SaveSession(ctx, s); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return prev, nil
}

// aftermath runs the madness check when sanity was lost down to zero and the
// incapacitation check at zero hp.
func (e *Engine) aftermath(ctx context.Context, playerID string, v state.VitalState, sanityLost bool) (*survival.MadnessResult, *state.Incapacitation, error) {
	if e.keeper == nil {
		return nil, nil, nil
	}
	var (
		madness *survival.MadnessResult
		incap   *state.Incapacitation
	)
	if sanityLost && v.Sanity <= 0 {
		m, err := e.keeper.CheckMadness(ctx, playerID)
		if err != nil {
			return nil, nil, err
		}
		madness = m
	}
	if v.HP <= 0 {
		res, err := e.keeper.CheckIncapacitation(ctx, playerID)
		if err != nil {
			return madness, nil, err
		}
		incap = &res
	}
	return madness, incap, nil
}
