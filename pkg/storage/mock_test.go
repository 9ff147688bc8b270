package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
)

func TestMockStorage_ApplyChangesInOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)

	v, err := m.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	v.HP = 5
	require.NoError(t, m.SaveVitalState(ctx, v))

	var cs Changeset
	cs.Stat(rules.ResourceHP, -10).Stat(rules.ResourceHP, 10).AddItem("Key", 2).AddClue("c_note", "쪽지")
	applied, err := m.ApplyChanges(ctx, "c1", cs)
	require.NoError(t, err)

	// clamped at 0 before the heal, so ordering matters
	assert.Equal(t, 10, applied.After.HP)
	assert.Equal(t, []int{-5, 10, 2, 1}, applied.Deltas)

	items, _ := m.ListItems(ctx, "c1")
	assert.Equal(t, []ItemCount{{Name: "Key", Count: 2}}, items)
	clues, _ := m.ListClues(ctx, "c1")
	require.Len(t, clues, 1)
	assert.Equal(t, "쪽지", clues[0].Name)
}

func TestMockStorage_ApplyChangesIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	require.NoError(t, m.AddItem(ctx, "c1", "Candle", 1))

	var cs Changeset
	cs.Consume("Candle").Cost(rules.ResourceHunger, 60)
	_, err := m.ApplyChanges(ctx, "c1", cs)
	assert.True(t, errors.Is(err, engineerr.ErrResourceInsufficient))

	items, _ := m.ListItems(ctx, "c1")
	assert.Equal(t, []ItemCount{{Name: "Candle", Count: 1}}, items)

	var missing Changeset
	missing.Consume("Lockpick")
	_, err = m.ApplyChanges(ctx, "c1", missing)
	assert.True(t, errors.Is(err, engineerr.ErrResourceInsufficient))
}

func TestMockStorage_MaxHPFromInvestigator(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	require.NoError(t, m.SaveInvestigator(ctx, &actor.InvestigatorSpec{ID: "c1", MaxHP: 60}))

	v, err := m.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 60, v.HP)

	var cs Changeset
	applied, err := m.ApplyChanges(ctx, "c1", *cs.Stat(rules.ResourceHP, 30))
	require.NoError(t, err)
	assert.Equal(t, 60, applied.After.HP)
}

func TestMockStorage_PendingRollConsumedOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	sid := uuid.New()

	require.NoError(t, m.PutPendingRoll(ctx, &state.PendingRoll{SessionID: sid, PlayerID: "p1", Stat: rules.StatPerception}))

	roll, err := m.TakePendingRoll(ctx, sid, "p1")
	require.NoError(t, err)
	assert.Equal(t, rules.StatPerception, roll.Stat)

	_, err = m.TakePendingRoll(ctx, sid, "p1")
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)
}

func TestMockStorage_UpdateAbortsChangeset(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	boom := errors.New("nope")

	var cs Changeset
	cs.Stat(rules.ResourceHP, -10).Update(func(v *state.VitalState, _ state.Limits) (int, error) {
		return 0, boom
	})
	_, err := m.ApplyChanges(ctx, "c1", cs)
	assert.ErrorIs(t, err, boom)

	v, _ := m.GetVitalState(ctx, "c1")
	assert.Equal(t, 100, v.HP)
}

func TestMockStorage_PendingParty(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	sid := uuid.New()

	require.NoError(t, m.PutPendingParty(ctx, &state.PendingRoll{SessionID: sid, ItemID: "cellar/제단"}))
	got, err := m.TakePendingParty(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "cellar/제단", got.ItemID)

	_, err = m.TakePendingParty(ctx, sid)
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)

	require.NoError(t, m.PutPendingParty(ctx, &state.PendingRoll{SessionID: sid}))
	require.NoError(t, m.DeleteSession(ctx, sid))
	_, err = m.TakePendingParty(ctx, sid)
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)
}

func TestMockStorage_TriggersAndCounts(t *testing.T) {
	ctx := context.Background()
	m := NewMockStorage(state.DefaultLimits)
	sid := uuid.New()

	require.NoError(t, m.UpdateTriggers(ctx, sid, []TriggerOp{{Name: "a"}, {Name: "b"}, {Name: "a", Remove: true}}))
	trig, _ := m.Triggers(ctx, sid)
	assert.Equal(t, map[string]bool{"b": true}, trig)

	n, _ := m.IncrementCount(ctx, sid, "item")
	assert.Equal(t, 1, n)
	n, _ = m.IncrementCount(ctx, sid, "item")
	assert.Equal(t, 2, n)

	ok, _ := m.ClaimDay(ctx, "hunger", "2026-01-01")
	assert.True(t, ok)
	ok, _ = m.ClaimDay(ctx, "hunger", "2026-01-01")
	assert.False(t, ok)
}
