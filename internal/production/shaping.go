package production

import "math"

// quarterPoint is the suitability at which output reaches its "quarter" level.
const quarterPoint = 0.25

// fuzzFraction is the width of the soft edge outside a range, relative to the range.
const fuzzFraction = 0.1

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Map converts a suitability in [0,1] to produced units. Output rises
// linearly from poor to quarter over [0, 0.25) and from quarter to full
// over [0.25, 1]. Out-of-range suitability is clamped.
func Map(poor, quarter, full, suitability float64) float64 {
	s := clamp01(suitability)
	if s < quarterPoint {
		return lerp(poor, quarter, s/quarterPoint)
	}
	return lerp(quarter, full, (s-quarterPoint)/(1-quarterPoint))
}

// Mix combines independent requirements into one suitability: the geometric
// mean of the clamped factors. Any factor at 0 yields 0.
func Mix(factors ...float64) float64 {
	if len(factors) == 0 {
		return 0
	}
	product := 1.0
	for _, f := range factors {
		product *= clamp01(f)
	}
	if product == 0 {
		return 0
	}
	return math.Pow(product, 1/float64(len(factors)))
}

// Trapezoid is 1 for v in [lo, hi], falls linearly to 0 across a margin of
// 10% of the range outside either bound, and is 0 beyond it.
func Trapezoid(v, lo, hi float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	fuzz := (hi - lo) * fuzzFraction
	if fuzz <= 0 {
		return 0
	}
	if v < lo {
		return clamp01(1 - (lo-v)/fuzz)
	}
	return clamp01(1 - (v-hi)/fuzz)
}

// Peak is like Trapezoid with an optimum inside the range. It rises from 0.5
// at lo to 1 at optimum and falls back to 0.5 at hi. Outside the range it
// drops from 0.5 to 0 across the 10% fuzz margin.
func Peak(v, lo, optimum, hi float64) float64 {
	fuzz := (hi - lo) * fuzzFraction
	switch {
	case v < lo:
		if fuzz <= 0 {
			return 0
		}
		return 0.5 * clamp01(1-(lo-v)/fuzz)
	case v > hi:
		if fuzz <= 0 {
			return 0
		}
		return 0.5 * clamp01(1-(v-hi)/fuzz)
	case v <= optimum:
		if optimum == lo {
			return 1
		}
		return 0.5 + 0.5*(v-lo)/(optimum-lo)
	default:
		if hi == optimum {
			return 1
		}
		return 1 - 0.5*(v-optimum)/(hi-optimum)
	}
}
