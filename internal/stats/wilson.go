package stats

import "math"

// confidenceZ maps supported confidence levels to their z-scores.
var confidenceZ = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// Wilson returns the Wilson score interval for wins out of n decided
// games, as percentages clamped to [0, 100]. The n = 0 case returns the
// degenerate interval [0, 100] directly: the formula would divide by
// zero, and "no data" is exactly total uncertainty.
func Wilson(wins, n int, z float64) (lower, upper float64) {
	if n == 0 {
		return 0, 100
	}

	p := float64(wins) / float64(n)
	nf := float64(n)
	z2 := z * z

	denom := 1 + z2/nf
	center := p + z2/(2*nf)
	margin := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))

	lower = clampPercent((center - margin) / denom * 100)
	upper = clampPercent((center + margin) / denom * 100)
	return lower, upper
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
