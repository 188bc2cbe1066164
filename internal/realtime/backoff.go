package realtime

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes reconnection delays: Initial * Factor^(attempt-1),
// spread by ±Randomization and capped at Max.
type Backoff struct {
	Initial       time.Duration
	Max           time.Duration
	Factor        float64
	Randomization float64

	// rnd returns a value in [0, 1). Defaults to math/rand.
	rnd func() float64
}

// Delay returns the wait before reconnection attempt n (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := b.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(b.Initial) * math.Pow(factor, float64(attempt-1))

	if b.Randomization > 0 {
		rnd := b.rnd
		if rnd == nil {
			rnd = rand.Float64
		}
		r := rnd()
		deviation := r * b.Randomization * d
		if int(r*10)&1 == 0 {
			d -= deviation
		} else {
			d += deviation
		}
	}

	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	return time.Duration(d)
}
