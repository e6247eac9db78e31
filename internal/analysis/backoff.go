package analysis

import (
	"time"

	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/telemetry"
)

const backoffJitter = 0.1

// backoff spaces generate attempts. The delay doubles from the configured
// initial value and never exceeds the smaller of max_delay and the request
// timeout, so a retry cycle cannot outlive one analysis interval by much.
type backoff struct {
	initial time.Duration
	max     time.Duration
	rnd     telemetry.Rand
}

func newBackoff(retry config.RetryConfig, timeout time.Duration, rnd telemetry.Rand) backoff {
	ceiling := retry.MaxDelay
	if timeout > 0 && timeout < ceiling {
		ceiling = timeout
	}
	return backoff{initial: min(retry.InitialDelay, ceiling), max: ceiling, rnd: rnd}
}

// delay is the wait before retry n (0-based). rnd spreads it by ±10%; a nil
// source gives the exact doubling.
func (b backoff) delay(n int) time.Duration {
	d := b.initial
	for i := 0; i < n && d < b.max; i++ {
		d *= 2
	}
	d = min(d, b.max)

	if b.rnd != nil {
		d += time.Duration(float64(d) * backoffJitter * (2*b.rnd.Float64() - 1))
	}
	return min(d, b.max)
}
