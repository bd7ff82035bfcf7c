package geo

import (
	"math"
	"testing"
)

func TestDistanceIdenticalPoints(t *testing.T) {
	points := []Point{
		{0, 0},
		{45.5, -122.6},
		{-90, 0},
		{90, 180},
	}
	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{44.7866, 20.4489}
	b := Point{45.2671, 19.8335}

	ab := Distance(a, b)
	ba := Distance(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceOneDegreeOfLongitudeAtEquator(t *testing.T) {
	// One degree of longitude at the equator is roughly 111.19 km.
	d := Distance(Point{0, 0}, Point{0, 1})

	want := 111195.0
	if math.Abs(d-want) > want*0.01 {
		t.Errorf("Distance((0,0),(0,1)) = %v, want %v ±1%%", d, want)
	}
}

func TestDistanceMonotonicForSmallDeltas(t *testing.T) {
	origin := Point{44.8, 20.45}

	prev := 0.0
	for i := 1; i <= 10; i++ {
		p := Point{origin.Latitude, origin.Longitude + float64(i)*0.0001}
		d := Distance(origin, p)
		if d <= prev {
			t.Fatalf("distance not increasing at step %d: %v <= %v", i, d, prev)
		}
		prev = d
	}
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(Point{0, 0}, Point{0, 180})
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("antipodal distance is not finite: %v", d)
	}

	// Half the Earth's circumference, ~20015 km.
	want := math.Pi * earthRadiusMeters
	if math.Abs(d-want) > want*0.01 {
		t.Errorf("antipodal distance = %v, want %v ±1%%", d, want)
	}
}

func TestDistanceKnownShortRange(t *testing.T) {
	// ~33m of latitude separation; used as the verified-review scenario.
	d := Distance(Point{0, 0}, Point{0.0003, 0})
	if d < 30 || d > 36 {
		t.Errorf("short-range distance = %v, want ~33m", d)
	}
}
