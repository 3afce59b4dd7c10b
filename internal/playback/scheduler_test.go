package playback

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsUntilStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var runs atomic.Int32
	delay := func() time.Duration { return 24 * time.Millisecond }
	require.True(t, s.Start(delay, func() { runs.Add(1) }))
	assert.False(t, s.Start(delay, func() {}), "one outstanding task")
	assert.True(t, s.Running())

	for want := int32(1); want <= 3; want++ {
		require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
		clock.Advance(24 * time.Millisecond)
		require.Eventually(t, func() bool { return runs.Load() == want }, time.Second, time.Millisecond)
	}

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	s.Stop()
	assert.False(t, s.Running())
	clock.Advance(time.Second)
	assert.Never(t, func() bool { return runs.Load() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestScheduler_RereadsDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var d atomic.Int64
	d.Store(int64(96 * time.Millisecond))
	var runs atomic.Int32
	s.Start(func() time.Duration { return time.Duration(d.Load()) }, func() {
		runs.Add(1)
		d.Store(int64(24 * time.Millisecond))
	})
	t.Cleanup(s.Stop)

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	clock.Advance(50 * time.Millisecond)
	assert.Zero(t, runs.Load())
	clock.Advance(46 * time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	clock.Advance(24 * time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, time.Millisecond)
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock())
	delay := func() time.Duration { return time.Millisecond }

	require.True(t, s.Start(delay, func() {}))
	s.Stop()
	s.Stop()
	assert.True(t, s.Start(delay, func() {}))
	s.Stop()
}

func TestSpeedFor(t *testing.T) {
	assert.Equal(t, Speed{Delay: 96 * time.Millisecond, Multiplier: 1}, SpeedFor(0))
	assert.Equal(t, Speed{Delay: 24 * time.Millisecond, Multiplier: 4}, SpeedFor(MaxSpeedLevel))
	assert.Equal(t, Speed{Delay: 24 * time.Millisecond, Multiplier: 1}, SpeedFor(9))
}

func TestFormatTime(t *testing.T) {
	ms := time.Date(2018, time.March, 2, 7, 45, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2018-03-02 07:45 UTC", FormatTime(ms))
}
