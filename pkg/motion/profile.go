package motion

import (
	"math"
	"time"

	"github.com/nikitakuklev/stepperd/internal/logger"
	"go.uber.org/zap"
)

// planProfile computes a symmetric trapezoidal (or triangular, for short
// moves) velocity profile using Taylor-series timing approximation, per
// spec §4.4. It is a pure function: no I/O, no motor state. Output fully
// determines the inter-step delays the executor will busy-wait on.
func planProfile(n int, jerk, velocity, acceleration float64) []time.Duration {
	if n <= 0 {
		return nil
	}

	t0 := math.Sqrt(2 / acceleration)
	dMin := 1 / velocity
	stepsToCruise := (velocity * velocity) / (2 * acceleration)
	slowdownStep := float64(n) - stepsToCruise + 1

	triangular := float64(n) < 2*stepsToCruise
	if triangular {
		slowdownStep = math.Floor(float64(n)/2) + 1
	}

	delays := make([]time.Duration, n)

	phase := "ramp-up"
	d := 0.676 * t0

	for i := 1; i <= n; i++ {
		switch phase {
		case "ramp-up":
			d = t0 * (math.Sqrt(float64(i+1)) - math.Sqrt(float64(i)))
			if d < dMin {
				d = dMin
				phase = "cruise"
			} else if float64(i) >= slowdownStep {
				phase = "ramp-down"
			}
		case "cruise":
			d = dMin
			if float64(i) >= slowdownStep {
				phase = "ramp-down"
			}
		case "ramp-down":
			if i == n {
				// Final step: the original's terminal case, avoiding the
				// denom=1 blowup (d - 2*d/1 = -d) the recurrence would
				// otherwise produce here.
				d = 0
			} else {
				denom := 4*(float64(i)-float64(n)) + 1
				if denom != 0 {
					d = d - 2*d/denom
				}
			}
		}

		if d <= 0 || d > t0 {
			logger.Warn("anomalous profile delay", zap.Int("step", i), zap.Float64("delay_s", d))
		}

		delays[i-1] = time.Duration(d * float64(time.Second))
	}

	return delays
}
