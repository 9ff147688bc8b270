package storage

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient("redis://" + mr.Addr())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRedisStorage(client, time.Minute, logger)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisStorage_Ping(t *testing.T) {
	r, _ := setupTestRedis(t)
	assert.NoError(t, r.Ping(context.Background()))
}

func TestRedisStorage_SessionRoundTrip(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	s := state.NewSession("저택", "저택", []string{"p1", "p2"})
	s.LocationID = "hall"
	require.NoError(t, r.SaveSession(ctx, s))
	assert.Equal(t, DefaultSessionTTL, mr.TTL(sessionKey(s.ID)))

	loaded, err := r.LoadSession(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "hall", loaded.LocationID)
	assert.Equal(t, "p1", loaded.LeaderID)
	assert.Equal(t, []string{"p1", "p2"}, loaded.Members)

	missing, err := r.LoadSession(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisStorage_PendingRollConsumedOnce(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()

	roll := &state.PendingRoll{ID: uuid.New(), SessionID: sid, PlayerID: "p1", ItemID: "hall/책상", VariantOrder: 2, Stat: "perception"}
	require.NoError(t, r.PutPendingRoll(ctx, roll))
	assert.Equal(t, time.Minute, mr.TTL(pendingKey(sid, "p1")))

	got, err := r.TakePendingRoll(ctx, sid, "p1")
	require.NoError(t, err)
	assert.Equal(t, roll.ID, got.ID)
	assert.Equal(t, 2, got.VariantOrder)

	_, err = r.TakePendingRoll(ctx, sid, "p1")
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)
}

func TestRedisStorage_PendingRollConcurrentTake(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()
	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: sid, PlayerID: "p1"}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.TakePendingRoll(ctx, sid, "p1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisStorage_PendingRollExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()
	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: sid, PlayerID: "p1"}))

	mr.FastForward(2 * time.Minute)

	_, err := r.TakePendingRoll(ctx, sid, "p1")
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)
}

func TestRedisStorage_PendingPartySeparateFromRolls(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()

	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: sid, PlayerID: "p1", ItemID: "hall/책상"}))
	require.NoError(t, r.PutPendingParty(ctx, &state.PendingRoll{SessionID: sid, PlayerID: "p1", ItemID: "cellar/제단", VariantOrder: 1}))
	assert.Equal(t, time.Minute, mr.TTL(partyKey(sid)))

	got, err := r.TakePendingParty(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "cellar/제단", got.ItemID)

	_, err = r.TakePendingParty(ctx, sid)
	assert.ErrorIs(t, err, engineerr.ErrNoPendingRoll)

	roll, err := r.TakePendingRoll(ctx, sid, "p1")
	require.NoError(t, err)
	assert.Equal(t, "hall/책상", roll.ItemID)
}

func TestRedisStorage_Triggers(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()

	require.NoError(t, r.UpdateTriggers(ctx, sid, []storage.TriggerOp{
		{Name: "문열림"},
		{Name: "불꺼짐"},
		{Name: "문열림", Remove: true},
		{Name: "비명"},
	}))

	got, err := r.Triggers(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"불꺼짐": true, "비명": true}, got)

	empty, err := r.Triggers(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisStorage_Counts(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	sid := uuid.New()

	n, err := r.IncrementCount(ctx, sid, "hall/책상")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = r.IncrementCount(ctx, sid, "hall/책상")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = r.IncrementCount(ctx, sid, "hall/메모")
	require.NoError(t, err)

	counts, err := r.Counts(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hall/책상": 2, "hall/메모": 1}, counts)
}

func TestRedisStorage_DeleteSession(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	s := state.NewSession("저택", "저택", []string{"p1", "p2"})
	require.NoError(t, r.SaveSession(ctx, s))
	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: s.ID, PlayerID: "p1"}))
	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: s.ID, PlayerID: "p2"}))
	require.NoError(t, r.PutPendingParty(ctx, &state.PendingRoll{SessionID: s.ID, PlayerID: "p1"}))
	require.NoError(t, r.UpdateTriggers(ctx, s.ID, []storage.TriggerOp{{Name: "비명"}}))
	_, err := r.IncrementCount(ctx, s.ID, "hall/책상")
	require.NoError(t, err)

	other := uuid.New()
	require.NoError(t, r.PutPendingRoll(ctx, &state.PendingRoll{SessionID: other, PlayerID: "p1"}))

	require.NoError(t, r.DeleteSession(ctx, s.ID))

	loaded, err := r.LoadSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, mr.Exists(triggersKey(s.ID)))
	assert.False(t, mr.Exists(countsKey(s.ID)))
	assert.False(t, mr.Exists(pendingKey(s.ID, "p2")))
	assert.False(t, mr.Exists(partyKey(s.ID)))
	assert.True(t, mr.Exists(pendingKey(other, "p1")))
}

func TestRedisStorage_ClaimDay(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.ClaimDay(ctx, "hunger_decay", "2026-10-17")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ClaimDay(ctx, "hunger_decay", "2026-10-17")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.ClaimDay(ctx, "hunger_decay", "2026-10-18")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClient_BareAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = NewRedisClient("redis://:bad@host:port:x")
	assert.Error(t, err)
}
