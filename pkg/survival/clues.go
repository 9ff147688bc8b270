package survival

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/synergy"
)

// CombineClues tries every recipe whose inputs the character owns and whose
// result they lack. Each attempt is an intelligence check; the scholar
// synergy makes it automatic. It returns the clues derived.
func (k *Keeper) CombineClues(ctx context.Context, id string) ([]content.Clue, error) {
	recipes, err := k.content.GetClueCombinationRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, nil
	}

	c, v, err := k.load(ctx, id)
	if err != nil {
		return nil, err
	}
	owned, err := k.characters.ListClues(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list clues for %s: %w", id, err)
	}
	has := func(clueID string) bool {
		return slices.ContainsFunc(owned, func(cl content.Clue) bool { return cl.ID == clueID })
	}

	in := rules.CheckInput{
		Base:           c.Base.Intelligence,
		SanityFraction: v.SanityFraction(c.Limits),
		Starving:       v.Starving(),
		HungerZeroDays: v.HungerZeroDays,
		Synergies:      synergy.Check(c.Base.Perception, c.Base.Intelligence, c.Base.Willpower),
		Context:        synergy.ContextInfoCombination,
	}

	var found []content.Clue
	for _, r := range recipes {
		if has(r.Result) || !allOf(r.Requires, has) {
			continue
		}
		check := rules.ResolveCheck(k.roller, in)
		if !check.Outcome.IsSuccess() {
			continue
		}

		clue := content.Clue{ID: r.Result, Name: r.Result, Description: r.Description}
		if meta, err := k.content.GetClue(ctx, r.Result); err == nil {
			clue = *meta
		} else if !errors.Is(err, engineerr.ErrContentNotFound) {
			return found, fmt.Errorf("failed to load clue %s: %w", r.Result, err)
		}

		var cs storage.Changeset
		if _, err := k.characters.ApplyChanges(ctx, id, *cs.AddClue(clue.ID, clue.Name)); err != nil {
			return found, fmt.Errorf("failed to record clue %s: %w", clue.ID, err)
		}
		owned = append(owned, clue)
		found = append(found, clue)
		k.notify(ctx, id, storage.NotifyClue,
			fmt.Sprintf("💡 정보 조합 성공!\n%s → %s\n새로운 정보를 도출했습니다!", strings.Join(r.Requires, " + "), clue.Name))
	}
	return found, nil
}

func allOf(ids []string, has func(string) bool) bool {
	return len(ids) > 0 && !slices.ContainsFunc(ids, func(id string) bool { return !has(id) })
}
