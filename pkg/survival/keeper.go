// Package survival runs the slow clock of the game: daily hunger, sanity and
// starvation upkeep, madness at zero sanity, incapacitation at zero hp, and
// the rest and eat actions.
package survival

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

// Character is an investigator loaded with its ceilings.
type Character struct {
	*actor.Investigator
	Base   state.StatSet
	Limits state.Limits
}

// LoadCharacter reads a spec from the store and builds the investigator.
func LoadCharacter(ctx context.Context, store storage.CharacterStore, id string, limits state.Limits) (*Character, error) {
	spec, err := store.GetInvestigator(ctx, id)
	if err != nil {
		return nil, err
	}
	inv, err := actor.NewInvestigator(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build investigator %s: %w", id, err)
	}
	return &Character{
		Investigator: inv,
		Base:         inv.Stats(),
		Limits:       inv.Limits(limits),
	}, nil
}

// Keeper applies survival rules through the stores.
type Keeper struct {
	characters storage.CharacterStore
	content    storage.ContentSource
	notifier   storage.Notifier
	roller     dice.Roller
	limits     state.Limits
	logger     *slog.Logger
	now        func() time.Time
}

func NewKeeper(characters storage.CharacterStore, content storage.ContentSource, notifier storage.Notifier, roller dice.Roller, limits state.Limits, logger *slog.Logger) *Keeper {
	return &Keeper{
		characters: characters,
		content:    content,
		notifier:   notifier,
		roller:     roller,
		limits:     limits,
		logger:     logger,
		now:        time.Now,
	}
}

// notify delivers a message and only logs failures.
func (k *Keeper) notify(ctx context.Context, characterID, kind, msg string) {
	if k.notifier == nil {
		return
	}
	err := k.notifier.Notify(ctx, storage.Notification{
		CharacterID: characterID,
		Kind:        kind,
		Message:     msg,
		At:          k.now(),
	})
	if err != nil {
		k.logger.Warn("notification failed", "character_id", characterID, "kind", kind, "error", err)
	}
}

func (k *Keeper) load(ctx context.Context, id string) (*Character, state.VitalState, error) {
	c, err := LoadCharacter(ctx, k.characters, id, k.limits)
	if err != nil {
		return nil, state.VitalState{}, err
	}
	v, err := k.characters.GetVitalState(ctx, id)
	if err != nil {
		return nil, state.VitalState{}, fmt.Errorf("failed to load vitals for %s: %w", id, err)
	}
	return c, v, nil
}
