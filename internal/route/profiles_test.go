package route

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantProfile(t *testing.T) {
	p := Constant{SpeedKmh: 36}

	for _, d := range []float64{0, 50, 100} {
		assert.InDelta(t, 10.0, p.SpeedAt(d, 100, 0), 1e-9, "constant speed at %v m", d)
	}
	assert.InDelta(t, 10.0, p.AvgSpeed(100, 0), 1e-9)
	assert.InDelta(t, 10.0, p.AvgSpeed(100, 25), 1e-9, "entry speed must not matter")
}

func TestRampToProfile(t *testing.T) {
	p := RampTo{TargetKmh: 36}

	t.Run("linear from standstill", func(t *testing.T) {
		assert.InDelta(t, 0.0, p.SpeedAt(0, 100, 0), 1e-9)
		assert.InDelta(t, 5.0, p.SpeedAt(50, 100, 0), 1e-9)
		assert.InDelta(t, 10.0, p.SpeedAt(100, 100, 0), 1e-9)
	})

	t.Run("linear from carried speed", func(t *testing.T) {
		assert.InDelta(t, 20.0, p.SpeedAt(0, 100, 20), 1e-9)
		assert.InDelta(t, 15.0, p.SpeedAt(50, 100, 20), 1e-9)
		assert.InDelta(t, 10.0, p.SpeedAt(100, 100, 20), 1e-9)
	})

	t.Run("zero length segment", func(t *testing.T) {
		assert.InDelta(t, 20.0, p.SpeedAt(0, 0, 20), 1e-9)
	})

	assert.InDelta(t, 15.0, p.AvgSpeed(100, 20), 1e-9)
}

func TestCruiseToProfile(t *testing.T) {
	p := CruiseTo{SpeedKmh: 36} // 10 m/s cruise

	t.Run("accelerates from standstill", func(t *testing.T) {
		// From rest the acceleration zone covers v^2/(2a) = 25 m.
		got := p.SpeedAt(12.5, 100, 0)
		assert.InDelta(t, math.Sqrt(2*DefaultAccelMps2*12.5), got, 1e-9)
		assert.InDelta(t, 10.0, p.SpeedAt(30, 100, 0), 1e-9, "past the accel zone")
	})

	t.Run("holds cruise mid segment", func(t *testing.T) {
		assert.InDelta(t, 10.0, p.SpeedAt(50, 100, 10), 1e-9)
	})

	t.Run("exits at half cruise", func(t *testing.T) {
		assert.InDelta(t, 5.0, p.SpeedAt(100, 100, 10), 1e-9)
	})

	t.Run("decelerates approaching the end", func(t *testing.T) {
		// decel zone is 12.5 m long at these rates
		v := p.SpeedAt(95, 100, 10)
		assert.Less(t, v, 10.0)
		assert.Greater(t, v, 5.0)
	})

	assert.InDelta(t, 8.5, p.AvgSpeed(100, 0), 1e-9, "avg is 85%% of cruise")
}

func TestStopAtEndProfile(t *testing.T) {
	p := StopAtEnd{StopDurationS: 3}

	t.Run("reaches exactly zero at segment end", func(t *testing.T) {
		assert.Equal(t, 0.0, p.SpeedAt(100, 100, 10))
		assert.Equal(t, 0.0, p.SpeedAt(120, 100, 10), "past the end stays zero")
	})

	t.Run("holds entry speed before the braking zone", func(t *testing.T) {
		// braking from 10 m/s at 3 m/s^2 needs 16.67 m
		assert.InDelta(t, 10.0, p.SpeedAt(50, 100, 10), 1e-9)
	})

	t.Run("brakes no faster than the decel limit", func(t *testing.T) {
		// v = sqrt(2*decel*remaining) is the curve of a constant
		// deceleration at exactly DefaultDecelMps2.
		for _, remaining := range []float64{1, 5, 10, 16} {
			got := p.SpeedAt(100-remaining, 100, 10)
			want := math.Sqrt(2 * DefaultDecelMps2 * remaining)
			assert.InDelta(t, want, got, 1e-9, "remaining %v m", remaining)
		}
	})

	t.Run("fallback entry speed when stopped", func(t *testing.T) {
		assert.InDelta(t, 25.0/3.6, p.SpeedAt(0, 100, 0), 1e-9)
	})

	assert.InDelta(t, 5.0, p.AvgSpeed(100, 10), 1e-9)
	assert.InDelta(t, 20.0/3.6, p.AvgSpeed(100, 0), 1e-9, "fallback avg when stopped")
}
