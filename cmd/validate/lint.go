package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/inquest-engine/internal/storage"
	"github.com/jwebster45206/inquest-engine/pkg/conditionals"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/effects"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	store "github.com/jwebster45206/inquest-engine/pkg/storage"
)

var knownTypes = map[content.InteractionType]bool{
	content.TypeInvestigation: true,
	content.TypeAcquire:       true,
	content.TypeUse:           true,
	content.TypeRead:          true,
	content.TypeRitual:        true,
	content.TypeCombat:        true,
	content.TypeOther:         true,
}

// Linter collects problems found in authored content. Errors break play;
// warnings are references the engine tolerates with a fallback.
type Linter struct {
	Errors   []string
	Warnings []string

	// catalog is nil when linting a lone category file
	catalog store.ContentSource
}

// LintDir loads a whole content directory and checks every file in it.
func (l *Linter) LintDir(ctx context.Context, dir string, log *slog.Logger) error {
	source, err := storage.NewFileContent(dir, log)
	if err != nil {
		return err
	}
	l.catalog = source

	categories, err := source.Categories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		l.warn("%s: no categories", dir)
	}
	for _, name := range categories {
		tree, err := source.GetLocationTree(ctx, name)
		if err != nil {
			return err
		}
		l.lintTree(ctx, tree)
	}

	if err := l.lintRecipes(ctx); err != nil {
		return err
	}
	if err := l.lintMadness(ctx); err != nil {
		return err
	}
	return l.lintInvestigators(ctx)
}

// LintCategoryFile checks one category without catalog lookups.
func (l *Linter) LintCategoryFile(ctx context.Context, path string) error {
	tree, err := storage.LoadCategoryFile(path)
	if err != nil {
		return err
	}
	l.lintTree(ctx, tree)
	return nil
}

func (l *Linter) lintTree(ctx context.Context, tree *content.Tree) {
	_ = tree.Walk(func(n *content.Node) error {
		where := tree.Category + "/" + n.ID
		l.lintCondition(ctx, where+" condition", n.Condition)
		for _, v := range n.Descriptions {
			l.lintCondition(ctx, fmt.Sprintf("%s description %d", where, v.Order), v.Condition)
		}
		for i := range n.Items {
			l.lintItem(ctx, tree, where, &n.Items[i])
		}
		return nil
	})
}

func (l *Linter) lintItem(ctx context.Context, tree *content.Tree, where string, it *content.Item) {
	where = where + "/" + it.Name
	if !knownTypes[it.Type] {
		l.fail("%s: unknown type %q", where, it.Type)
	}
	if len(it.Variants) == 0 {
		l.warn("%s: no variants", where)
	}

	seen := make(map[int]bool, len(it.Variants))
	for _, v := range it.Variants {
		vw := fmt.Sprintf("%s variant %d", where, v.Order)
		if seen[v.Order] {
			l.warn("%s: duplicate order", vw)
		}
		seen[v.Order] = true

		l.lintCondition(ctx, vw+" condition", v.Condition)
		results := []struct {
			label, raw string
		}{
			{"crit_success", v.CritSuccess},
			{"success", v.Success},
			{"failure", v.Failure},
			{"crit_failure", v.CritFailure},
		}
		for _, r := range results {
			l.lintEffects(ctx, tree, vw+" "+r.label, r.raw)
		}
	}
}

func (l *Linter) lintCondition(ctx context.Context, where, raw string) {
	set, errs := conditionals.Parse(raw)
	for _, err := range errs {
		l.fail("%s: %v", where, err)
	}
	for _, c := range set.Of(conditionals.KindItem) {
		for _, name := range c.Names {
			l.checkItem(ctx, where, name)
		}
	}
}

func (l *Linter) lintEffects(ctx context.Context, tree *content.Tree, where, raw string) {
	prog, errs := effects.Parse(raw)
	for _, err := range errs {
		l.fail("%s: %v", where, err)
	}
	for _, e := range prog.Effects {
		switch e.Kind {
		case effects.Move:
			if _, err := tree.Node(e.Value); err != nil {
				l.fail("%s: move target %q is not a location in %s", where, e.Value, tree.Category)
			}
		case effects.ItemAdd, effects.ItemRemove:
			l.checkItem(ctx, where, e.Value)
		case effects.ClueAdd:
			l.checkClue(ctx, where, e.Value)
		}
	}
}

func (l *Linter) lintRecipes(ctx context.Context) error {
	recipes, err := l.catalog.GetClueCombinationRecipes(ctx)
	if err != nil {
		return err
	}
	for _, r := range recipes {
		where := "recipe " + r.ID
		if r.Result == "" {
			l.fail("%s: no result", where)
		}
		if len(r.Requires) < 2 {
			l.fail("%s: needs at least two clues", where)
		}
		for _, id := range r.Requires {
			l.checkClue(ctx, where, id)
		}
		if r.Result != "" {
			l.checkClue(ctx, where, r.Result)
		}
	}
	return nil
}

func (l *Linter) lintMadness(ctx context.Context) error {
	catalog, err := l.catalog.GetMadnessCatalog(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(catalog))
	for _, m := range catalog {
		if m.ID == "" {
			l.fail("madness %q: missing id", m.Name)
			continue
		}
		if seen[m.ID] {
			l.fail("madness %s: duplicate id", m.ID)
		}
		seen[m.ID] = true
		if m.RecoveryDifficulty < 0 || m.RecoveryDifficulty > 100 {
			l.fail("madness %s: recovery_difficulty %d out of 0-100", m.ID, m.RecoveryDifficulty)
		}
	}
	return nil
}

func (l *Linter) lintInvestigators(ctx context.Context) error {
	roster, err := l.catalog.Investigators(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(roster))
	for _, inv := range roster {
		if inv.ID == "" {
			l.fail("investigator %q: missing id", inv.Name)
			continue
		}
		if seen[inv.ID] {
			l.fail("investigator %s: duplicate id", inv.ID)
		}
		seen[inv.ID] = true
	}
	return nil
}

func (l *Linter) checkItem(ctx context.Context, where, name string) {
	if l.catalog == nil || name == "" {
		return
	}
	if _, err := l.catalog.GetItemData(ctx, name); errors.Is(err, engineerr.ErrContentNotFound) {
		l.warn("%s: item %q is not in the item catalog", where, name)
	}
}

func (l *Linter) checkClue(ctx context.Context, where, id string) {
	if l.catalog == nil || id == "" {
		return
	}
	if _, err := l.catalog.GetClue(ctx, id); errors.Is(err, engineerr.ErrContentNotFound) {
		l.warn("%s: clue %q is not in the clue catalog", where, id)
	}
}

func (l *Linter) fail(format string, args ...any) {
	l.Errors = append(l.Errors, fmt.Sprintf(format, args...))
}

func (l *Linter) warn(format string, args ...any) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}
