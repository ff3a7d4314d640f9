// Package eval scores model quality and diagnoses prediction error
// structure. All computations are pure, synchronous and stdlib-only.
package eval

import (
	"math"
	"sort"

	"view-forecast-service/internal/domain"
)

// Error band thresholds reported as "percentage of predictions within".
var errorBands = []float64{0.10, 0.25, 0.50}

// Magnitude strata bucket samples by actual view count. The top bucket
// is open: High is nil so the struct stays JSON-encodable.
type Stratum struct {
	Label string   `json:"label"`
	Low   float64  `json:"low"`
	High  *float64 `json:"high,omitempty"` // exclusive
}

func (s Stratum) contains(v float64) bool {
	return v >= s.Low && (s.High == nil || v < *s.High)
}

func upperBound(v float64) *float64 { return &v }

var magnitudeStrata = []Stratum{
	{Label: "0-1k", Low: 0, High: upperBound(1_000)},
	{Label: "1k-10k", Low: 1_000, High: upperBound(10_000)},
	{Label: "10k-100k", Low: 10_000, High: upperBound(100_000)},
	{Label: "100k+", Low: 100_000},
}

// Metrics holds aggregate accuracy metrics over one prediction set.
type Metrics struct {
	N int `json:"n"`

	MAE            float64 `json:"mae"`
	RMSE           float64 `json:"rmse"`
	R2             float64 `json:"r2"`
	MAPE           float64 `json:"mape"` // percent
	MedianAbsError float64 `json:"median_abs_error"`
	MaxAbsError    float64 `json:"max_abs_error"`

	// WithinBand[i] is the fraction of predictions whose relative error
	// is at most errorBands[i] (10%, 25%, 50%).
	Within10Pct float64 `json:"within_10_pct"`
	Within25Pct float64 `json:"within_25_pct"`
	Within50Pct float64 `json:"within_50_pct"`

	Strata []StratumMetrics `json:"strata"`
}

// StratumMetrics is the per-magnitude-bucket breakdown.
type StratumMetrics struct {
	Stratum Stratum `json:"stratum"`
	N       int     `json:"n"`
	MAE     float64 `json:"mae"`
	MAPE    float64 `json:"mape"`
}

// EvaluatePredictions computes the aggregate metrics for parallel
// actual/predicted slices.
//
// The MAPE denominator uses max(actual, 1): a zero-view actual can never
// raise a division error.
func EvaluatePredictions(actual, predicted []float64) (*Metrics, error) {
	if len(actual) == 0 {
		return nil, &domain.ValidationError{Field: "actual", Reason: "no samples to evaluate"}
	}
	if len(actual) != len(predicted) {
		return nil, &domain.ValidationError{Field: "predicted", Reason: "actual and predicted lengths differ"}
	}

	n := float64(len(actual))
	absErrors := make([]float64, len(actual))

	var sumAbs, sumSq, sumPct float64
	bandHits := make([]float64, len(errorBands))

	for i := range actual {
		diff := predicted[i] - actual[i]
		abs := math.Abs(diff)
		absErrors[i] = abs

		sumAbs += abs
		sumSq += diff * diff

		pct := abs / math.Max(actual[i], 1)
		sumPct += pct

		for b, band := range errorBands {
			if pct <= band {
				bandHits[b]++
			}
		}
	}

	m := &Metrics{
		N:           len(actual),
		MAE:         sumAbs / n,
		RMSE:        math.Sqrt(sumSq / n),
		MAPE:        sumPct / n * 100,
		R2:          rSquared(actual, predicted),
		Within10Pct: bandHits[0] / n,
		Within25Pct: bandHits[1] / n,
		Within50Pct: bandHits[2] / n,
		Strata:      stratify(actual, predicted),
	}

	sort.Float64s(absErrors)
	m.MedianAbsError = median(absErrors)
	m.MaxAbsError = absErrors[len(absErrors)-1]

	return m, nil
}

// rSquared is 1 - SS_res/SS_tot. A constant actual series yields 0.
func rSquared(actual, predicted []float64) float64 {
	m := mean(actual)

	var ssRes, ssTot float64
	for i := range actual {
		r := actual[i] - predicted[i]
		ssRes += r * r
		d := actual[i] - m
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0
	}

	return 1 - ssRes/ssTot
}

func stratify(actual, predicted []float64) []StratumMetrics {
	out := make([]StratumMetrics, len(magnitudeStrata))
	for i, s := range magnitudeStrata {
		out[i].Stratum = s
	}

	sums := make([]float64, len(magnitudeStrata))
	pcts := make([]float64, len(magnitudeStrata))

	for i := range actual {
		for b, s := range magnitudeStrata {
			if s.contains(actual[i]) {
				abs := math.Abs(predicted[i] - actual[i])
				out[b].N++
				sums[b] += abs
				pcts[b] += abs / math.Max(actual[i], 1)
				break
			}
		}
	}

	for b := range out {
		if out[b].N > 0 {
			out[b].MAE = sums[b] / float64(out[b].N)
			out[b].MAPE = pcts[b] / float64(out[b].N) * 100
		}
	}

	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// median assumes a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}
