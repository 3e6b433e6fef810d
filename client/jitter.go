package client

import (
	"math"
	"math/rand"
)

// jitterMaxDegrees bounds the per-axis display offset. 0.0001 degrees of
// latitude is roughly 11 meters; longitude is scaled by cos(lat) so the
// metric bound holds away from the equator too.
const jitterMaxDegrees = 0.0001

// DeduplicationPolicy perturbs submitted positions so distinct marks dropped
// on the same spot do not render as a single pin. The offset is uniform,
// zero-centered and bounded per axis; it is applied once at submission time
// and stored, not recomputed per render.
type DeduplicationPolicy struct {
	// rand is swappable for tests.
	rand *rand.Rand
}

// NewDeduplicationPolicy returns a policy with its own PRNG.
func NewDeduplicationPolicy() *DeduplicationPolicy {
	return &DeduplicationPolicy{}
}

func (p *DeduplicationPolicy) float64() float64 {
	if p.rand != nil {
		return p.rand.Float64()
	}
	return rand.Float64()
}

// Apply returns pos displaced by a random offset of at most about ten
// meters per axis. The input must be valid; the output always is, because
// the perturbation is clamped back into geographic range.
func (p *DeduplicationPolicy) Apply(pos Position) Position {
	latOffset := (p.float64()*2 - 1) * jitterMaxDegrees
	lngScale := math.Cos(pos.Lat * math.Pi / 180)
	if math.Abs(lngScale) < 0.01 {
		// Near the poles a longitude degree is nearly zero meters; leave
		// the scale at its floor instead of dividing toward infinity.
		lngScale = math.Copysign(0.01, lngScale)
	}
	lngOffset := (p.float64()*2 - 1) * jitterMaxDegrees / lngScale

	out := Position{
		Lat: clamp(pos.Lat+latOffset, -90, 90),
		Lng: clamp(pos.Lng+lngOffset, -180, 180),
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
