package eval

import (
	"math"
	"sort"

	"view-forecast-service/internal/domain"
)

// Residual analysis thresholds.
const (
	// minNormalitySamples is the floor below which the Jarque-Bera test
	// is reported as unavailable instead of computed.
	minNormalitySamples = 8

	// zScoreOutlierThreshold flags residuals with |z| above it.
	zScoreOutlierThreshold = 3.0

	// iqrFenceFactor is the classic 1.5x inter-quartile-range fence.
	iqrFenceFactor = 1.5

	// varianceRatioThreshold flags heteroscedasticity when the upper/lower
	// half residual variance ratio exceeds it (either direction).
	varianceRatioThreshold = 4.0

	// varianceRatioCap stands in for an unbounded ratio when one half has
	// zero variance, keeping the diagnostics JSON-encodable.
	varianceRatioCap = 1e6
)

// NormalityResult is the Jarque-Bera test outcome. When the sample is too
// small the test is explicitly marked unavailable rather than omitted.
type NormalityResult struct {
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Normal    bool    `json:"normal"` // p >= 0.05
}

// ResidualDiagnostics describes the error structure of one prediction set.
type ResidualDiagnostics struct {
	N int `json:"n"`

	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess kurtosis

	Normality NormalityResult `json:"normality"`

	// Heteroscedastic compares residual variance between the lower and
	// upper halves of samples ordered by predicted value.
	Heteroscedastic bool    `json:"heteroscedastic"`
	VarianceRatio   float64 `json:"variance_ratio"`

	// Outlier indices from the two methods, computed independently and
	// reported separately, never merged.
	IQROutliers    []int `json:"iqr_outliers"`
	ZScoreOutliers []int `json:"z_score_outliers"`
}

// AnalyzeResiduals computes residual diagnostics for parallel
// actual/predicted slices. Statistics that cannot be computed for the
// sample size are annotated unavailable; the analysis never fails partway.
func AnalyzeResiduals(actual, predicted []float64) (*ResidualDiagnostics, error) {
	if len(actual) == 0 {
		return nil, &domain.ValidationError{Field: "actual", Reason: "no samples to analyze"}
	}
	if len(actual) != len(predicted) {
		return nil, &domain.ValidationError{Field: "predicted", Reason: "actual and predicted lengths differ"}
	}

	residuals := make([]float64, len(actual))
	for i := range actual {
		residuals[i] = actual[i] - predicted[i]
	}

	d := &ResidualDiagnostics{N: len(residuals)}
	d.Mean = mean(residuals)
	d.Std = stddev(residuals, d.Mean)
	d.Skewness = skewness(residuals, d.Mean, d.Std)
	d.Kurtosis = excessKurtosis(residuals, d.Mean, d.Std)
	d.Normality = jarqueBera(len(residuals), d.Skewness, d.Kurtosis)
	d.Heteroscedastic, d.VarianceRatio = varianceRatio(predicted, residuals)
	d.IQROutliers = iqrOutliers(residuals)
	d.ZScoreOutliers = zScoreOutliers(residuals, d.Mean, d.Std)

	return d, nil
}

// jarqueBera computes JB = n/6 * (S^2 + K^2/4) against chi-square with
// two degrees of freedom, for which the survival function is exactly
// exp(-x/2).
func jarqueBera(n int, skew, excessKurt float64) NormalityResult {
	if n < minNormalitySamples {
		return NormalityResult{
			Available: false,
			Reason:    "insufficient sample size for normality test",
		}
	}

	jb := float64(n) / 6 * (skew*skew + excessKurt*excessKurt/4)
	p := math.Exp(-jb / 2)

	return NormalityResult{
		Available: true,
		Statistic: jb,
		PValue:    p,
		Normal:    p >= 0.05,
	}
}

// varianceRatio orders residuals by predicted value, splits in half and
// compares variances. Requires at least 4 samples per half.
func varianceRatio(predicted, residuals []float64) (bool, float64) {
	const minHalf = 4

	if len(residuals) < 2*minHalf {
		return false, 1
	}

	idx := make([]int, len(predicted))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return predicted[idx[a]] < predicted[idx[b]] })

	half := len(idx) / 2
	lower := make([]float64, 0, half)
	upper := make([]float64, 0, len(idx)-half)
	for i, id := range idx {
		if i < half {
			lower = append(lower, residuals[id])
		} else {
			upper = append(upper, residuals[id])
		}
	}

	lv := variance(lower)
	uv := variance(upper)
	if lv == 0 && uv == 0 {
		return false, 1
	}
	if lv == 0 || uv == 0 {
		return true, varianceRatioCap
	}

	ratio := uv / lv
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > varianceRatioCap {
		ratio = varianceRatioCap
	}

	return ratio > varianceRatioThreshold, ratio
}

// iqrOutliers returns indices outside the 1.5xIQR fences.
func iqrOutliers(residuals []float64) []int {
	sorted := append([]float64(nil), residuals...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1

	low := q1 - iqrFenceFactor*iqr
	high := q3 + iqrFenceFactor*iqr

	out := []int{}
	for i, r := range residuals {
		if r < low || r > high {
			out = append(out, i)
		}
	}

	return out
}

// zScoreOutliers returns indices with |z| > 3.
func zScoreOutliers(residuals []float64, m, std float64) []int {
	out := []int{}
	if std == 0 {
		return out
	}

	for i, r := range residuals {
		if math.Abs(r-m)/std > zScoreOutlierThreshold {
			out = append(out, i)
		}
	}

	return out
}

// quantile uses linear interpolation on a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}

	return ss / float64(len(values)-1)
}

func stddev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}

	return math.Sqrt(ss / float64(len(values)-1))
}

// skewness is the adjusted Fisher-Pearson sample skewness.
func skewness(values []float64, m, std float64) float64 {
	n := float64(len(values))
	if n < 3 || std == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		z := (v - m) / std
		sum += z * z * z
	}

	return n / ((n - 1) * (n - 2)) * sum
}

// excessKurtosis is the sample excess kurtosis (normal = 0).
func excessKurtosis(values []float64, m, std float64) float64 {
	n := float64(len(values))
	if n < 4 || std == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		z := (v - m) / std
		sum += z * z * z * z
	}

	adj := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	correction := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))

	return adj*sum - correction
}
