package rewards_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/rewards"
)

var player = accounts.Ref{Kind: accounts.KindStandard, ID: 1}

func newMemoryEngine(t *testing.T) (*rewards.Engine, *rewards.MemoryStore) {
	t.Helper()
	store := rewards.NewMemoryStore()
	store.SetBalance(player, 0)
	engine := rewards.NewEngine(store, rewards.Config{Location: time.UTC, Timeout: time.Second})
	return engine, store
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestClaim_FirstEverClaim(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()

	res, err := engine.Claim(ctx, player, at(2025, 3, 10, 9))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Reward)
	assert.Equal(t, 1, res.Streak)
	assert.True(t, res.IsFirstClaim)
	assert.Equal(t, "First day reward claimed!", res.Message)

	st, err := store.Find(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, at(2025, 3, 10, 0), st.LastVisitDate)
	require.Len(t, st.History, 1)
	assert.Equal(t, 100, st.History[0].Tokens)
	assert.Equal(t, 1, st.History[0].StreakDay)

	balance, err := store.Balance(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
}

func TestClaim_SameDayRejectedWithoutMutation(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()

	_, err := engine.Claim(ctx, player, at(2025, 3, 10, 9))
	require.NoError(t, err)
	before, _ := store.Find(ctx, player)

	_, err = engine.Claim(ctx, player, at(2025, 3, 10, 23))
	assert.ErrorIs(t, err, rewards.ErrAlreadyClaimed)

	after, _ := store.Find(ctx, player)
	assert.Equal(t, before, after)
	balance, _ := store.Balance(ctx, player)
	assert.Equal(t, 100, balance)
}

func TestClaim_ConsecutiveDaysEscalateAndCap(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()

	want := []int{100, 200, 300, 500, 600, 800, 1000, 1000, 1000}
	total := 0
	for i, reward := range want {
		res, err := engine.Claim(ctx, player, at(2025, 3, 1+i, 12))
		require.NoError(t, err, "day %d", i+1)
		assert.Equal(t, reward, res.Reward, "day %d", i+1)
		assert.Equal(t, min(i+1, 7), res.Streak, "day %d", i+1)
		total += reward
	}
	balance, _ := store.Balance(ctx, player)
	assert.Equal(t, total, balance)

	st, _ := store.Find(ctx, player)
	assert.Len(t, st.History, len(want), "history is never pruned")
}

func TestClaim_GapResetsStreak(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := engine.Claim(ctx, player, at(2025, 3, 1+i, 8))
		require.NoError(t, err)
	}
	res, err := engine.Claim(ctx, player, at(2025, 3, 6, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, 100, res.Reward)
	assert.Equal(t, "Day 1 reward claimed!", res.Message)
	assert.False(t, res.IsFirstClaim)
}

func TestClaim_Scenario(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()
	day1 := at(2025, 6, 1, 10)

	status, err := engine.Status(ctx, player, day1)
	require.NoError(t, err)
	assert.True(t, status.CanClaim)
	assert.Equal(t, 100, status.NextReward)
	assert.Equal(t, 0, status.Streak)
	assert.True(t, status.IsFirstClaim)
	assert.Nil(t, status.LastClaim)

	res, err := engine.Claim(ctx, player, day1)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Reward)
	assert.Equal(t, 1, res.Streak)

	_, err = engine.Claim(ctx, player, day1.Add(time.Hour))
	assert.ErrorIs(t, err, rewards.ErrAlreadyClaimed)

	res, err = engine.Claim(ctx, player, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Reward)
	assert.Equal(t, 2, res.Streak)

	// skip three days
	res, err = engine.Claim(ctx, player, day1.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Reward)
	assert.Equal(t, 1, res.Streak)
}

func TestStatus_AgreesWithClaim(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()

	days := []time.Time{
		at(2025, 5, 1, 7),
		at(2025, 5, 2, 7),
		at(2025, 5, 3, 7),
		at(2025, 5, 7, 7),
		at(2025, 5, 8, 7),
	}
	for _, now := range days {
		status, err := engine.Status(ctx, player, now)
		require.NoError(t, err)
		require.True(t, status.CanClaim)

		res, err := engine.Claim(ctx, player, now)
		require.NoError(t, err)
		assert.Equal(t, status.NextReward, res.Reward, "on %s", now.Format("2006-01-02"))
	}
}

func TestStatus_AfterClaim(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := engine.Claim(ctx, player, at(2025, 5, 1+i, 7))
		require.NoError(t, err)
	}

	sameDay, err := engine.Status(ctx, player, at(2025, 5, 3, 22))
	require.NoError(t, err)
	assert.False(t, sameDay.CanClaim)
	assert.Equal(t, 300, sameDay.NextReward)
	assert.Equal(t, 3, sameDay.Streak)
	assert.Equal(t, 600, sameDay.Tokens)
	require.NotNil(t, sameDay.LastClaim)
	assert.Equal(t, at(2025, 5, 3, 0), *sameDay.LastClaim)

	nextDay, err := engine.Status(ctx, player, at(2025, 5, 4, 1))
	require.NoError(t, err)
	assert.True(t, nextDay.CanClaim)
	assert.Equal(t, 500, nextDay.NextReward)
	assert.Equal(t, 3, nextDay.Streak, "streak is reported unincremented")

	gap, err := engine.Status(ctx, player, at(2025, 5, 9, 1))
	require.NoError(t, err)
	assert.True(t, gap.CanClaim)
	assert.Equal(t, 100, gap.NextReward)
	assert.Equal(t, 3, gap.Streak)
}

func TestStatus_HistoryShowsLastSeven(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := engine.Claim(ctx, player, at(2025, 1, 1+i, 7))
		require.NoError(t, err)
	}
	status, err := engine.Status(ctx, player, at(2025, 1, 10, 8))
	require.NoError(t, err)
	require.Len(t, status.History, 7)
	assert.Equal(t, at(2025, 1, 4, 0), status.History[0].Date)
	assert.Equal(t, at(2025, 1, 10, 0), status.History[6].Date, "most recent last")
}

func TestClaim_ConcurrentSameAccountOnlyOneWins(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()
	now := at(2025, 7, 1, 12)

	const racers = 16
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Claim(ctx, player, now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, rewards.ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, wins)
	balance, _ := store.Balance(ctx, player)
	assert.Equal(t, 100, balance)
}

func TestClaim_AccountsAreIndependent(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()
	gamer := accounts.Ref{Kind: accounts.KindGamer, ID: 1}
	store.SetBalance(gamer, 1000)
	now := at(2025, 7, 1, 12)

	_, err := engine.Claim(ctx, player, now)
	require.NoError(t, err)
	res, err := engine.Claim(ctx, gamer, now)
	require.NoError(t, err, "same id under another kind is a different account")
	assert.Equal(t, 100, res.Reward)

	balance, _ := store.Balance(ctx, gamer)
	assert.Equal(t, 1100, balance)
}

func TestClaim_UnknownAccountWritesNothing(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()
	ghost := accounts.Ref{Kind: accounts.KindGamer, ID: 99}

	_, err := engine.Claim(ctx, ghost, at(2025, 7, 1, 12))
	assert.ErrorIs(t, err, rewards.ErrAccountNotFound)

	_, err = store.Find(ctx, ghost)
	assert.ErrorIs(t, err, rewards.ErrNotFound, "state must not outlive a failed credit")
}

func TestClaim_LockTimeoutIsStoreUnavailable(t *testing.T) {
	store := rewards.NewMemoryStore()
	store.SetBalance(player, 0)
	engine := rewards.NewEngine(store, rewards.Config{Location: time.UTC, Timeout: 20 * time.Millisecond})

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.Atomic(context.Background(), player, func(rewards.Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	_, err := engine.Claim(context.Background(), player, at(2025, 7, 1, 12))
	assert.ErrorIs(t, err, rewards.ErrStoreUnavailable)
}

func TestStatus_WaitsForInFlightClaim(t *testing.T) {
	engine, store := newMemoryEngine(t)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Atomic(ctx, player, func(tx rewards.Tx) error {
			if err := tx.AddTokens(ctx, player, 50); err != nil {
				return err
			}
			n, err := tx.Balance(ctx, player)
			if err != nil {
				return err
			}
			if n != 50 {
				return assert.AnError
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	statusCh := make(chan *rewards.StatusResult, 1)
	go func() {
		status, err := engine.Status(ctx, player, at(2025, 7, 1, 12))
		assert.NoError(t, err)
		statusCh <- status
	}()

	select {
	case <-statusCh:
		t.Fatal("status returned while the account was locked")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-done)

	status := <-statusCh
	require.NotNil(t, status)
	assert.Equal(t, 50, status.Tokens, "status sees the committed credit, not the balance before it")
}

func TestClaim_CustomTable(t *testing.T) {
	store := rewards.NewMemoryStore()
	store.SetBalance(player, 0)
	table, err := rewards.NewTable([]int{1, 2, 3})
	require.NoError(t, err)
	engine := rewards.NewEngine(store, rewards.Config{Table: table, Location: time.UTC})
	ctx := context.Background()

	var got []int
	for i := 0; i < 5; i++ {
		res, err := engine.Claim(ctx, player, at(2025, 2, 1+i, 6))
		require.NoError(t, err)
		got = append(got, res.Reward)
		assert.LessOrEqual(t, res.Streak, 3)
	}
	assert.Equal(t, []int{1, 2, 3, 3, 3}, got)
}
