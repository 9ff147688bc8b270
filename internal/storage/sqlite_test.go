package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "inquest.db"), state.DefaultLimits, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ", state.DefaultLimits, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestOpenSQLite_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquest.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := OpenSQLite(path, state.DefaultLimits, logger)
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, "c1", "빵", 2))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, state.DefaultLimits, logger)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []storage.ItemCount{{Name: "빵", Count: 2}}, items)
}

func TestSQLiteStore_Investigators(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	spec := &actor.InvestigatorSpec{
		ID:     "c2",
		Name:   "한서윤",
		Stats:  state.StatSet{Perception: 40, Intelligence: 50, Willpower: 60},
		Skills: []string{"라틴어"},
	}
	require.NoError(t, s.SaveInvestigator(ctx, spec))
	require.NoError(t, s.SaveInvestigator(ctx, &actor.InvestigatorSpec{ID: "c1"}))

	got, err := s.GetInvestigator(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, spec, got)

	spec.Stats.Willpower = 70
	require.NoError(t, s.SaveInvestigator(ctx, spec))
	got, err = s.GetInvestigator(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 70, got.Stats.Willpower)

	ids, err := s.ListInvestigators(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)

	_, err = s.GetInvestigator(ctx, "nobody")
	assert.ErrorIs(t, err, engineerr.ErrContentNotFound)
}

func TestSQLiteStore_VitalsCreatedOnFirstReference(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SaveInvestigator(ctx, &actor.InvestigatorSpec{ID: "c1", MaxHP: 60}))

	v, err := s.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, state.VitalState{CharacterID: "c1", HP: 60, Sanity: 100, Hunger: 50}, v)

	v.Hunger = 12
	v.LastHungerDay = "2026-10-17"
	require.NoError(t, s.SaveVitalState(ctx, v))

	again, err := s.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestSQLiteStore_ApplyChanges(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SaveInvestigator(ctx, &actor.InvestigatorSpec{ID: "c1", MaxHP: 60}))
	require.NoError(t, s.AddItem(ctx, "c1", "양초", 2))

	var cs storage.Changeset
	cs.Consume("양초").
		Cost(rules.ResourceHunger, 10).
		Stat(rules.ResourceHP, 30).
		Stat(rules.ResourceSanity, -15).
		AddItem("열쇠", 1).
		AddClue("c_key", "열쇠의 문양").
		AddClue("c_key", "열쇠의 문양")

	applied, err := s.ApplyChanges(ctx, "c1", cs)
	require.NoError(t, err)
	assert.Equal(t, []int{1, -10, 0, -15, 1, 1, 0}, applied.Deltas)
	assert.Equal(t, 50, applied.Before.Hunger)
	assert.Equal(t, 40, applied.After.Hunger)
	assert.Equal(t, 60, applied.After.HP)
	assert.Equal(t, 85, applied.After.Sanity)

	items, err := s.ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []storage.ItemCount{{Name: "양초", Count: 1}, {Name: "열쇠", Count: 1}}, items)

	clues, err := s.ListClues(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []content.Clue{{ID: "c_key", Name: "열쇠의 문양"}}, clues)
}

func TestSQLiteStore_ApplyChangesIsAtomic(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, "c1", "양초", 1))

	var cs storage.Changeset
	cs.Consume("양초").AddClue("c1", "단서").Cost(rules.ResourceHunger, 60)
	_, err := s.ApplyChanges(ctx, "c1", cs)
	assert.ErrorIs(t, err, engineerr.ErrResourceInsufficient)

	items, err := s.ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []storage.ItemCount{{Name: "양초", Count: 1}}, items)
	clues, err := s.ListClues(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, clues)
	v, err := s.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 50, v.Hunger)

	var missing storage.Changeset
	missing.Consume("자물쇠따개")
	_, err = s.ApplyChanges(ctx, "c1", missing)
	assert.ErrorIs(t, err, engineerr.ErrResourceInsufficient)
}

func TestSQLiteStore_RemoveItemSaturates(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, "c1", "빵", 2))

	require.NoError(t, s.RemoveItem(ctx, "c1", "빵", 5))
	require.NoError(t, s.RemoveItem(ctx, "c1", "없는것", 1))

	items, err := s.ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteStore_FeedResetsZeroDays(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	v, err := s.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	v.Hunger = 0
	v.HungerZeroDays = 3
	require.NoError(t, s.SaveVitalState(ctx, v))

	var cs storage.Changeset
	applied, err := s.ApplyChanges(ctx, "c1", *cs.Stat(rules.ResourceHunger, 20).Feed())
	require.NoError(t, err)
	assert.Equal(t, 20, applied.After.Hunger)
	assert.Equal(t, 0, applied.After.HungerZeroDays)
}

func TestSQLiteStore_UpdateRunsInsideChangeset(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	var cs storage.Changeset
	cs.Stat(rules.ResourceHP, -100).Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		v.HP = max(v.HP, 1)
		v.LastMadnessDay = "2026-03-01"
		return v.HP, nil
	})
	applied, err := s.ApplyChanges(ctx, "c1", cs)
	require.NoError(t, err)
	assert.Equal(t, []int{-100, 1}, applied.Deltas)

	v, err := s.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.HP)
	assert.Equal(t, "2026-03-01", v.LastMadnessDay)

	var failing storage.Changeset
	failing.AddItem("열쇠", 1).Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		return 0, state.ErrAlreadyRested
	})
	_, err = s.ApplyChanges(ctx, "c1", failing)
	assert.ErrorIs(t, err, state.ErrAlreadyRested)

	items, err := s.ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteStore_Madness(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.AddMadness(ctx, "c1", content.MadnessRecord{ID: "m1", Name: "공포증"}))
	require.NoError(t, s.AddMadness(ctx, "c1", content.MadnessRecord{ID: "m2", Name: "편집증"}))
	require.NoError(t, s.AddMadness(ctx, "c1", content.MadnessRecord{ID: "m1", Name: "공포증"}))

	owned, err := s.ListMadness(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "m1", owned[0].MadnessID)
	assert.Equal(t, "편집증", owned[1].Name)
	assert.False(t, owned[0].AcquiredAt.IsZero())

	require.NoError(t, s.RemoveMadness(ctx, "c1", "m1"))
	owned, err = s.ListMadness(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "m2", owned[0].MadnessID)
}

func TestUpSection(t *testing.T) {
	sql := "-- +migrate Up\nCREATE TABLE a(id TEXT);\n-- +migrate Down\nDROP TABLE a;"
	assert.Equal(t, "\nCREATE TABLE a(id TEXT);\n", upSection(sql))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
