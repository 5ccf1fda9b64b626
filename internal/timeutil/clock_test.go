package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClockNow(t *testing.T) {
	before := time.Now()
	now := RealClock{}.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestRealClockTimerFires(t *testing.T) {
	timer := RealClock{}.NewTimer(5 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestMockClockFrozen(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clock := NewMockClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now())

	clock.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), clock.Now())
}

func TestMockTimerFiresOnAdvance(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(10 * time.Second)

	clock.Advance(5 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	clock.Advance(5 * time.Second)
	select {
	case fired := <-timer.C():
		assert.Equal(t, time.Unix(10, 0), fired)
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestMockTimerFiresOnce(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)

	clock.Advance(time.Second)
	require.Len(t, timer.C(), 1)
	<-timer.C()

	clock.Advance(time.Hour)
	assert.Empty(t, timer.C())
}

func TestMockTimerStop(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	clock.Advance(time.Minute)
	assert.Empty(t, timer.C())
}

func TestMockTimerStopAfterFire(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)

	clock.Advance(time.Second)
	assert.False(t, timer.Stop())
}
