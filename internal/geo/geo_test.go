package geo

import (
	"math"
	"testing"
)

func TestHaversineM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantM                  float64
		tolM                   float64
	}{
		{"zero distance", 51.5, -0.1, 51.5, -0.1, 0, 0.001},
		// One degree of latitude is ~111.19 km on the sphere used here.
		{"one degree latitude", 0, 0, 1, 0, 111194.9, 10},
		// 0.0089932 degrees latitude is ~1 km.
		{"one kilometre north", 0, 0, 0.0089932, 0, 1000, 0.5},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343500, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantM) > tt.tolM {
				t.Errorf("HaversineM = %f, want %f +/- %f", got, tt.wantM, tt.tolM)
			}
		})
	}
}

func TestInitialBearingDeg(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due north", 0, 0, 1, 0, 0},
		{"due east", 0, 0, 0, 1, 90},
		{"due south", 1, 0, 0, 0, 180},
		{"due west", 0, 1, 0, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialBearingDeg(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("InitialBearingDeg = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestInterpolate(t *testing.T) {
	lat, lon := Interpolate(10, 20, 12, 24, 0.5)
	if lat != 11 || lon != 22 {
		t.Errorf("Interpolate midpoint = (%f, %f), want (11, 22)", lat, lon)
	}
	lat, lon = Interpolate(10, 20, 12, 24, 0)
	if lat != 10 || lon != 20 {
		t.Errorf("Interpolate start = (%f, %f), want (10, 20)", lat, lon)
	}
	lat, lon = Interpolate(10, 20, 12, 24, 1)
	if lat != 12 || lon != 24 {
		t.Errorf("Interpolate end = (%f, %f), want (12, 24)", lat, lon)
	}
}

func TestSignedDeltaDeg(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		want     float64
	}{
		{"no turn", 90, 90, 0},
		{"clockwise 40", 10, 50, 40},
		{"counter clockwise 40", 50, 10, -40},
		{"wrap clockwise", 350, 10, 20},
		{"wrap counter clockwise", 10, 350, -20},
		{"half turn", 0, 180, -180}, // sign is arbitrary at exactly 180
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SignedDeltaDeg(tt.from, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SignedDeltaDeg(%f, %f) = %f, want %f", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTurnAngleDeg(t *testing.T) {
	if got := TurnAngleDeg(350, 10); math.Abs(got-20) > 1e-9 {
		t.Errorf("TurnAngleDeg(350, 10) = %f, want 20", got)
	}
	if got := TurnAngleDeg(0, 180); math.Abs(got-180) > 1e-9 {
		t.Errorf("TurnAngleDeg(0, 180) = %f, want 180", got)
	}
}

func TestNormalizeBearingDeg(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0}, {360, 0}, {370, 10}, {-10, 350}, {725, 5},
	}
	for _, tt := range tests {
		if got := NormalizeBearingDeg(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeBearingDeg(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
