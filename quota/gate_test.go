package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfinder-backend/accounts"
	"fundfinder-backend/usage"
)

type fakeStatus struct {
	status accounts.Status
	err    error
}

func (f *fakeStatus) StatusOf(context.Context, string) (accounts.Status, error) {
	return f.status, f.err
}

type fakeCounter struct {
	counts map[usage.Day]int
	calls  int
	err    error
}

func (f *fakeCounter) CountToday(_ context.Context, _ string, day usage.Day) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[day], nil
}

const today = usage.Day("2024-05-01")

func newGate(st *fakeStatus, c *fakeCounter) *Gate {
	return NewGate(st, c, 3, zerolog.Nop())
}

func TestFreeUserProgression(t *testing.T) {
	counter := &fakeCounter{counts: map[usage.Day]int{}}
	g := newGate(&fakeStatus{status: accounts.StatusFree}, counter)

	d, err := g.Check(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonWithinFreeQuota, d.Reason)
	assert.Equal(t, 0, d.DailyCount)

	counter.counts[today] = 3
	d, err = g.Check(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, Decision{Allowed: false, Reason: ReasonQuotaExhausted, DailyCount: 3, Limit: 3}, d)
}

func TestBoundary(t *testing.T) {
	cases := []struct {
		count   int
		allowed bool
	}{
		{0, true}, {2, true}, {3, false}, {7, false},
	}
	for _, tc := range cases {
		g := newGate(&fakeStatus{status: accounts.StatusFree}, &fakeCounter{counts: map[usage.Day]int{today: tc.count}})
		d, err := g.Check(context.Background(), "u1", today)
		require.NoError(t, err)
		assert.Equal(t, tc.allowed, d.Allowed, "count=%d", tc.count)
	}
}

func TestProBypassesLedger(t *testing.T) {
	counter := &fakeCounter{counts: map[usage.Day]int{today: 50}}
	g := newGate(&fakeStatus{status: accounts.StatusActive}, counter)

	for i := 0; i < 10; i++ {
		d, err := g.Check(context.Background(), "u1", today)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonProUnlimited, d.Reason)
	}
	assert.Zero(t, counter.calls, "ledger must not be read for pro users")
}

func TestUpgradeMidDay(t *testing.T) {
	st := &fakeStatus{status: accounts.StatusFree}
	counter := &fakeCounter{counts: map[usage.Day]int{today: 3}}
	g := newGate(st, counter)

	d, err := g.Check(context.Background(), "u1", today)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	st.status = accounts.StatusActive
	calls := counter.calls
	d, err = g.Check(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonProUnlimited, d.Reason)
	assert.Equal(t, calls, counter.calls)
	assert.Equal(t, 3, counter.counts[today], "stale count is left alone")
}

func TestNextDayIsFresh(t *testing.T) {
	counter := &fakeCounter{counts: map[usage.Day]int{today: 3}}
	g := newGate(&fakeStatus{status: accounts.StatusFree}, counter)

	d, err := g.Check(context.Background(), "u1", "2024-05-02")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.DailyCount)
}

func TestStoreErrorsFailClosed(t *testing.T) {
	boom := errors.New("store down")

	g := newGate(&fakeStatus{err: boom}, &fakeCounter{})
	d, err := g.Check(context.Background(), "u1", today)
	assert.ErrorIs(t, err, boom)
	assert.False(t, d.Allowed)

	g = newGate(&fakeStatus{status: accounts.StatusFree}, &fakeCounter{err: boom})
	d, err = g.Check(context.Background(), "u1", today)
	assert.ErrorIs(t, err, boom)
	assert.False(t, d.Allowed)
}

func TestCheckHasNoSideEffects(t *testing.T) {
	counter := &fakeCounter{counts: map[usage.Day]int{today: 1}}
	g := newGate(&fakeStatus{status: accounts.StatusFree}, counter)
	for i := 0; i < 5; i++ {
		_, err := g.Check(context.Background(), "u1", today)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, counter.counts[today])
}

func TestRemaining(t *testing.T) {
	g := newGate(&fakeStatus{status: accounts.StatusFree}, &fakeCounter{counts: map[usage.Day]int{today: 1}})
	n, err := g.Remaining(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	g = newGate(&fakeStatus{status: accounts.StatusFree}, &fakeCounter{counts: map[usage.Day]int{today: 5}})
	n, err = g.Remaining(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	g = newGate(&fakeStatus{status: accounts.StatusActive}, &fakeCounter{})
	n, err = g.Remaining(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, Unlimited, n)
}
