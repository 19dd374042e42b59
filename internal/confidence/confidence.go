// Package confidence converts raw retrieval distances into calibrated
// scores in [0,1]. Distances are metric values where smaller means
// more similar; a distance of zero maps to full confidence.
package confidence

import "math"

const (
	// Floor is the minimum aggregate reported for any non-empty
	// retrieval. Any real match is reported as at least moderate
	// confidence, so values below 0.50 only ever mean "no results".
	Floor = 0.50

	strongMatchAvg  = 1.5
	strongBoost     = 1.5
	strongBoostCap  = 0.95
	goodMatchAvg    = 2.5
	goodBoost       = 1.3
	goodBoostCap    = 0.90
	boostMinResults = 3
)

// Score maps a single distance to a per-result confidence.
// Monotonically decreasing, [0, inf) -> (0, 1].
func Score(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// Aggregate collapses an ascending-distance result list into one
// confidence value. Results are rank-weighted so the top hits
// dominate, then boosted when the top three raw distances indicate a
// strong match, and finally floored at Floor.
func Aggregate(distances []float64) float64 {
	if len(distances) == 0 {
		return 0.0
	}

	var weightedSum, totalWeight float64
	for i, d := range distances {
		weight := 1.0 / math.Sqrt(float64(i+1))
		base := 1.0 / (1.0 + math.Pow(d, 0.8))
		weightedSum += base * weight
		totalWeight += weight
	}
	avg := weightedSum / totalWeight

	if len(distances) >= boostMinResults {
		top3 := (distances[0] + distances[1] + distances[2]) / 3
		if top3 < strongMatchAvg {
			avg = math.Min(avg*strongBoost, strongBoostCap)
		} else if top3 < goodMatchAvg {
			avg = math.Min(avg*goodBoost, goodBoostCap)
		}
	}

	return math.Max(avg, Floor)
}
