package survival

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

// Daily job names, used for the per-day lock.
const (
	JobHunger     = "hunger_decay"
	JobSanity     = "sanity_recovery"
	JobStarvation = "starvation"
	JobMadness    = "madness_recovery"
	JobClues      = "clue_combination"
)

// Jobs is the order the daily jobs run in.
var Jobs = []string{JobHunger, JobStarvation, JobSanity, JobMadness, JobClues}

// SweepReport counts what one sweep changed.
type SweepReport struct {
	Job      string `json:"job"`
	Day      string `json:"day"`
	Visited  int    `json:"visited"`
	Changed  int    `json:"changed"`
	Failures int    `json:"failures"`
}

// Sweep runs one daily job for every investigator. Per-character failures are
// logged and counted; the sweep continues.
func (k *Keeper) Sweep(ctx context.Context, job, day string) (SweepReport, error) {
	ids, err := k.characters.ListInvestigators(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("failed to list investigators: %w", err)
	}

	rep := SweepReport{Job: job, Day: day}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Visited++
		changed, err := k.runJob(ctx, job, id, day)
		if err != nil {
			rep.Failures++
			k.logger.Error("daily job failed", "job", job, "character_id", id, "error", err)
			continue
		}
		if changed {
			rep.Changed++
		}
	}
	k.logger.Info("daily sweep finished", "job", job, "day", day, "visited", rep.Visited, "changed", rep.Changed, "failures", rep.Failures)
	return rep, nil
}

func (k *Keeper) runJob(ctx context.Context, job, id, day string) (bool, error) {
	switch job {
	case JobHunger:
		return k.DecayHunger(ctx, id, day)
	case JobSanity:
		res, err := k.RecoverSanity(ctx, id, day)
		return res.Recovered > 0, err
	case JobStarvation:
		tick, err := k.Starve(ctx, id, day)
		return tick.Applied, err
	case JobMadness:
		names, err := k.RecoverMadness(ctx, id, day)
		return len(names) > 0, err
	case JobClues:
		found, err := k.CombineClues(ctx, id)
		return len(found) > 0, err
	}
	return false, fmt.Errorf("unknown job %q", job)
}

// DecayHunger applies the daily hunger loss to one character.
func (k *Keeper) DecayHunger(ctx context.Context, id, day string) (bool, error) {
	c, err := LoadCharacter(ctx, k.characters, id, k.limits)
	if err != nil {
		return false, err
	}
	var (
		ok bool
		cs storage.Changeset
	)
	cs.Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		*v, ok = state.DecayHunger(*v, c.Base, day)
		return 0, nil
	})
	if _, err := k.characters.ApplyChanges(ctx, id, cs); err != nil {
		return false, fmt.Errorf("failed to decay hunger for %s: %w", id, err)
	}
	return ok, nil
}

// RecoverSanity applies the daily sanity recovery to one character, warning
// them when hunger blocks it.
func (k *Keeper) RecoverSanity(ctx context.Context, id, day string) (state.SanityRecovery, error) {
	c, err := LoadCharacter(ctx, k.characters, id, k.limits)
	if err != nil {
		return state.SanityRecovery{}, err
	}
	var (
		res state.SanityRecovery
		cs  storage.Changeset
	)
	cs.Update(func(v *state.VitalState, l state.Limits) (int, error) {
		*v, res = state.RecoverSanity(*v, c.Base, day, l)
		return res.Recovered, nil
	})
	applied, err := k.characters.ApplyChanges(ctx, id, cs)
	if err != nil {
		return state.SanityRecovery{}, fmt.Errorf("failed to recover sanity for %s: %w", id, err)
	}
	if res.Hungry {
		k.notify(ctx, id, storage.NotifySanity,
			fmt.Sprintf("⚠️ 배고픔 때문에 정신이 회복되지 않습니다.\n필요 허기: %d (현재: %d)", int(res.Threshold), applied.After.Hunger))
	}
	return res, nil
}

// Starve advances starvation for one character, then checks incapacitation.
func (k *Keeper) Starve(ctx context.Context, id, day string) (state.StarvationTick, error) {
	var (
		tick state.StarvationTick
		cs   storage.Changeset
	)
	cs.Update(func(v *state.VitalState, l state.Limits) (int, error) {
		*v, tick = state.Starve(*v, day, l)
		return 0, nil
	})
	if _, err := k.characters.ApplyChanges(ctx, id, cs); err != nil {
		return state.StarvationTick{}, fmt.Errorf("failed to apply starvation for %s: %w", id, err)
	}
	if !tick.Applied {
		return tick, nil
	}

	msg := fmt.Sprintf("⚠️ 굶주림 %d일차\n", tick.ZeroDays)
	if tick.HPDamage > 0 {
		msg += fmt.Sprintf("%s -%d\n", rules.DisplayName(rules.ResourceHP), tick.HPDamage)
	}
	if tick.SanityDamage > 0 {
		msg += fmt.Sprintf("%s -%d\n", rules.DisplayName(rules.ResourceSanity), tick.SanityDamage)
	}
	k.notify(ctx, id, storage.NotifyStarvation, msg+"빨리 식사를 하세요!")

	if _, err := k.CheckIncapacitation(ctx, id); err != nil {
		return tick, err
	}
	return tick, nil
}

// Rest is the once-a-day sanity recovery action. It returns sanity before and after.
func (k *Keeper) Rest(ctx context.Context, id, day string) (before, after int, err error) {
	c, v, err := k.load(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	var cs storage.Changeset
	cs.Update(func(v *state.VitalState, l state.Limits) (int, error) {
		next, gained, err := state.Rest(*v, c.Base, day, l)
		if err != nil {
			return 0, err
		}
		*v = next
		return gained, nil
	})
	applied, err := k.characters.ApplyChanges(ctx, id, cs)
	if errors.Is(err, state.ErrAlreadyRested) || errors.Is(err, state.ErrTooHungry) {
		return v.Sanity, v.Sanity, err
	}
	if err != nil {
		return v.Sanity, v.Sanity, fmt.Errorf("failed to rest %s: %w", id, err)
	}
	return applied.Before.Sanity, applied.After.Sanity, nil
}

// ErrNotFood means the item cannot be eaten.
var ErrNotFood = errors.New("item is not food")

// Eat consumes one food item, restores hunger and resets the starvation
// counter in one changeset. It returns hunger before and after.
func (k *Keeper) Eat(ctx context.Context, id, itemName string) (before, after int, err error) {
	rec, err := k.content.GetItemData(ctx, itemName)
	if err != nil {
		return 0, 0, err
	}
	if !rec.IsFood() {
		return 0, 0, fmt.Errorf("%s: %w", itemName, ErrNotFood)
	}

	c, v, err := k.load(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	if _, err := state.Eat(v, rec.HungerRecovery, c.Limits); err != nil {
		return v.Hunger, v.Hunger, err
	}

	var cs storage.Changeset
	cs.Consume(itemName).Stat(rules.ResourceHunger, rec.HungerRecovery).Feed()
	applied, err := k.characters.ApplyChanges(ctx, id, cs)
	if err != nil {
		return v.Hunger, v.Hunger, fmt.Errorf("failed to eat %s: %w", itemName, err)
	}
	return applied.Before.Hunger, applied.After.Hunger, nil
}
