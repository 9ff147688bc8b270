package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

type recordingSweeper struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (r *recordingSweeper) Sweep(ctx context.Context, job, day string) (survival.SweepReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return survival.SweepReport{}, r.err
	}
	r.runs = append(r.runs, job+"@"+day)
	return survival.SweepReport{Job: job, Day: day}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunDue_OncePerDay(t *testing.T) {
	sweeper := &recordingSweeper{}
	locker := storage.NewMockStorage(state.DefaultLimits)
	seoul := time.FixedZone("KST", 9*3600)

	// 2026-10-17 15:30 UTC is already 10-18 in Seoul.
	w := New(sweeper, locker, seoul, 0, testLogger(), "w1").
		WithClock(fixedClock(time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)), 0)

	reports, err := w.RunDue(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, len(survival.Jobs))
	assert.Equal(t, "hunger_decay@2026-10-18", sweeper.runs[0])
	assert.Equal(t, "starvation@2026-10-18", sweeper.runs[1])

	reports, err = w.RunDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Len(t, sweeper.runs, len(survival.Jobs))
}

func TestRunDue_SharedLockAcrossWorkers(t *testing.T) {
	sweeper := &recordingSweeper{}
	locker := storage.NewMockStorage(state.DefaultLimits)
	clock := fixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))

	a := New(sweeper, locker, time.UTC, 0, testLogger(), "a").WithClock(clock, 0)
	b := New(sweeper, locker, time.UTC, 0, testLogger(), "b").WithClock(clock, 0)

	var wg sync.WaitGroup
	for _, w := range []*Worker{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.RunDue(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, sweeper.runs, len(survival.Jobs))
}

func TestRunDue_WaitsForSweepHour(t *testing.T) {
	sweeper := &recordingSweeper{}
	locker := storage.NewMockStorage(state.DefaultLimits)
	w := New(sweeper, locker, time.UTC, 6, testLogger(), "").
		WithClock(fixedClock(time.Date(2026, 10, 17, 5, 59, 0, 0, time.UTC)), 0)

	reports, err := w.RunDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Empty(t, sweeper.runs)
}

func TestRunDue_SweepError(t *testing.T) {
	sweeper := &recordingSweeper{err: errors.New("store down")}
	locker := storage.NewMockStorage(state.DefaultLimits)
	w := New(sweeper, locker, time.UTC, 0, testLogger(), "w1").
		WithClock(fixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)), 0)

	_, err := w.RunDue(context.Background())
	assert.ErrorContains(t, err, "store down")
}

func TestRunDue_WithKeeper(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage(state.DefaultLimits)
	require.NoError(t, store.SaveInvestigator(ctx, &actor.InvestigatorSpec{
		ID:    "c1",
		Stats: state.StatSet{Perception: 40, Intelligence: 50, Willpower: 60},
	}))
	keeper := survival.NewKeeper(store, storage.NewMockContent(), &storage.MockNotifier{}, dice.NewFixed(50), state.DefaultLimits, testLogger())

	w := New(keeper, store, time.UTC, 0, testLogger(), "w1").
		WithClock(fixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)), 0)

	reports, err := w.RunDue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, reports)
	assert.Equal(t, 1, reports[0].Changed)

	v, err := store.GetVitalState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 38, v.Hunger)
	assert.Equal(t, "2026-10-17", v.LastHungerDay)
}

func TestStartStop(t *testing.T) {
	sweeper := &recordingSweeper{}
	locker := storage.NewMockStorage(state.DefaultLimits)
	w := New(sweeper, locker, time.UTC, 0, testLogger(), "w1").
		WithClock(fixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)), 5*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	require.Eventually(t, func() bool {
		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		return len(sweeper.runs) == len(survival.Jobs)
	}, time.Second, 5*time.Millisecond)

	w.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
