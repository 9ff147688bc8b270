package survival

import (
	"context"
	"fmt"
	"slices"

	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

// MadnessResult is the outcome of a zero-sanity madness check.
type MadnessResult struct {
	Checked  bool                   `json:"checked"` // sanity was at zero
	Roll     int                    `json:"roll"`
	Target   int                    `json:"target"`
	Resisted bool                   `json:"resisted"`
	Acquired *content.MadnessRecord `json:"acquired,omitempty"`
}

// CheckMadness runs when sanity reaches zero. Rolling at or under
// 10 - (intelligence-40)*0.6 leaves the character at 1 sanity; otherwise a
// random madness the character does not already have is acquired.
func (k *Keeper) CheckMadness(ctx context.Context, characterID string) (*MadnessResult, error) {
	c, v, err := k.load(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if v.Sanity > 0 {
		return &MadnessResult{}, nil
	}

	roll, resisted := rules.ResistMadness(k.roller, c.Base.Intelligence)
	res := &MadnessResult{
		Checked:  true,
		Roll:     roll,
		Target:   int(rules.MadnessCheckTarget(c.Base.Intelligence)),
		Resisted: resisted,
	}

	if resisted {
		var cs storage.Changeset
		if _, err := k.characters.ApplyChanges(ctx, characterID, *cs.Stat(rules.ResourceSanity, 1)); err != nil {
			return nil, fmt.Errorf("failed to restore sanity for %s: %w", characterID, err)
		}
		k.notify(ctx, characterID, storage.NotifyMadness,
			fmt.Sprintf("🧠 광기 저항 성공! (주사위: %d / 목표: %d)\n논리로 광기를 버텨냈습니다. 정신력이 1이 됩니다.", roll, res.Target))
		return res, nil
	}

	acquired, err := k.AcquireMadness(ctx, characterID)
	if err != nil {
		return nil, err
	}
	res.Acquired = acquired
	k.notify(ctx, characterID, storage.NotifyMadness,
		fmt.Sprintf("😱 광기 저항 실패... (주사위: %d / 목표: %d)\n광기에 잠식됩니다.", roll, res.Target))
	return res, nil
}

// AcquireMadness grants a random unowned madness. It returns nil when the
// character already has every madness in the catalog.
func (k *Keeper) AcquireMadness(ctx context.Context, characterID string) (*content.MadnessRecord, error) {
	catalog, err := k.content.GetMadnessCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load madness catalog: %w", err)
	}
	owned, err := k.characters.ListMadness(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list madness for %s: %w", characterID, err)
	}

	available := slices.DeleteFunc(slices.Clone(catalog), func(m content.MadnessRecord) bool {
		return slices.ContainsFunc(owned, func(o storage.OwnedMadness) bool { return o.MadnessID == m.ID })
	})
	if len(available) == 0 {
		k.logger.Info("no madness left to acquire", "character_id", characterID)
		return nil, nil
	}

	picked := available[k.roller.Roll(0, len(available)-1)]
	if err := k.characters.AddMadness(ctx, characterID, picked); err != nil {
		return nil, fmt.Errorf("failed to add madness for %s: %w", characterID, err)
	}
	k.notify(ctx, characterID, storage.NotifyMadness,
		fmt.Sprintf("🎭 새로운 광기 획득: %s\n%s\n효과: %s %d", picked.Name, picked.Description, picked.EffectType, picked.EffectValue))
	return &picked, nil
}

// RecoverMadness rolls recovery for each owned madness once per day, provided
// sanity is at least 50 + intelligence*0.3. It returns the names recovered.
func (k *Keeper) RecoverMadness(ctx context.Context, characterID, day string) ([]string, error) {
	c, err := LoadCharacter(ctx, k.characters, characterID, k.limits)
	if err != nil {
		return nil, err
	}
	var cs storage.Changeset
	cs.Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		if v.LastMadnessDay == day {
			return 0, nil
		}
		v.LastMadnessDay = day
		return 1, nil
	})
	applied, err := k.characters.ApplyChanges(ctx, characterID, cs)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp madness day for %s: %w", characterID, err)
	}
	if applied.Deltas[0] == 0 {
		return nil, nil
	}

	if float64(applied.After.Sanity) < rules.MadnessRecoveryThreshold(c.Base.Intelligence) {
		return nil, nil
	}

	owned, err := k.characters.ListMadness(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list madness for %s: %w", characterID, err)
	}
	catalog, err := k.content.GetMadnessCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load madness catalog: %w", err)
	}

	var recovered []string
	for _, o := range owned {
		idx := slices.IndexFunc(catalog, func(m content.MadnessRecord) bool { return m.ID == o.MadnessID })
		if idx < 0 {
			k.logger.Warn("owned madness missing from catalog", "character_id", characterID, "madness_id", o.MadnessID)
			continue
		}
		roll := dice.D100(k.roller)
		if !rules.MadnessRecovers(roll, catalog[idx].RecoveryDifficulty) {
			continue
		}
		if err := k.characters.RemoveMadness(ctx, characterID, o.MadnessID); err != nil {
			return recovered, fmt.Errorf("failed to remove madness %s: %w", o.MadnessID, err)
		}
		recovered = append(recovered, o.Name)
		k.notify(ctx, characterID, storage.NotifyMadness, fmt.Sprintf("🌟 광기 회복! '%s' 광기에서 벗어났습니다!", o.Name))
	}
	return recovered, nil
}

// CheckIncapacitation rolls willpower evasion for a character at zero hp.
// The roll and the hp floor apply to the vitals as stored at that moment.
func (k *Keeper) CheckIncapacitation(ctx context.Context, characterID string) (state.Incapacitation, error) {
	c, v, err := k.load(ctx, characterID)
	if err != nil {
		return state.Incapacitation{}, err
	}
	if v.HP > 0 {
		return state.Incapacitation{}, nil
	}
	current := c.Base.Current(v, c.Limits)

	var (
		res state.Incapacitation
		cs  storage.Changeset
	)
	cs.Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		*v, res = state.CheckIncapacitation(*v, current.Willpower, k.roller)
		return 0, nil
	})
	applied, err := k.characters.ApplyChanges(ctx, characterID, cs)
	if err != nil {
		return state.Incapacitation{}, fmt.Errorf("failed to check incapacitation for %s: %w", characterID, err)
	}
	if !res.Checked {
		return res, nil
	}
	if res.Evaded {
		k.notify(ctx, characterID, storage.NotifyIncapacitated, "💪 의지로 버텼습니다! 쓰러질 뻔했지만 의지력으로 견뎌냈습니다. (체력 1 유지)")
	} else {
		k.notify(ctx, characterID, storage.NotifyIncapacitated, "💀 실신했습니다! 체력이 바닥나 의식을 잃었습니다. 동료의 도움이 필요합니다.")
	}
	if err := c.SyncHP(applied.After.HP); err != nil {
		k.logger.Warn("failed to sync actor hp", "character_id", characterID, "error", err)
	}
	return res, nil
}
