package motion

import (
	"math"
	"testing"
)

func TestPlanProfileCruiseFloor(t *testing.T) {
	delays := planProfile(500, 100, 2000, 1000)
	if len(delays) != 500 {
		t.Fatalf("expected 500 delays, got %d", len(delays))
	}

	dMin := 1.0 / 2000
	tolerance := 1e-6
	// The final step's delay is the terminal case (0), not a cruise-speed
	// delay, so it is excluded from the floor check.
	for i, d := range delays[:len(delays)-1] {
		secs := d.Seconds()
		if secs < dMin-tolerance {
			t.Fatalf("delay[%d] = %v below cruise floor %v", i, secs, dMin)
		}
	}
	if last := delays[len(delays)-1].Seconds(); last != 0 {
		t.Fatalf("expected terminal delay 0, got %v", last)
	}
}

func TestPlanProfileSymmetry(t *testing.T) {
	velocity := 200.0
	acceleration := 1000.0
	stepsToCruise := (velocity * velocity) / (2 * acceleration)
	n := int(2*stepsToCruise) + 200

	delays := planProfile(n, 100, velocity, acceleration)
	cruiseSteps := int(stepsToCruise)

	const relTolerance = 0.05
	for i := 0; i < cruiseSteps; i++ {
		a := delays[i].Seconds()
		b := delays[len(delays)-1-i].Seconds()
		denom := math.Max(a, b)
		if denom == 0 {
			continue
		}
		if math.Abs(a-b)/denom > relTolerance {
			t.Fatalf("profile not symmetric at offset %d: ramp-up=%v ramp-down=%v", i, a, b)
		}
	}
}

func TestPlanProfileTriangularShortMove(t *testing.T) {
	delays := planProfile(10, 100, 2000, 1000)
	if len(delays) != 10 {
		t.Fatalf("expected 10 delays, got %d", len(delays))
	}
	// The final step's delay is the terminal case (0); every step before it
	// must still be a positive delay.
	for _, d := range delays[:len(delays)-1] {
		if d <= 0 {
			t.Fatalf("non-positive delay in triangular profile: %v", d)
		}
	}
	if last := delays[len(delays)-1]; last != 0 {
		t.Fatalf("expected terminal delay 0, got %v", last)
	}
}

func TestPlanProfileEmpty(t *testing.T) {
	if delays := planProfile(0, 100, 2000, 1000); delays != nil {
		t.Fatalf("expected nil for zero steps, got %v", delays)
	}
}
