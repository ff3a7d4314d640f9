package eval

import (
	"sort"
	"time"

	"view-forecast-service/internal/domain"
)

// Composite ranking weights.
//
// Score = 0.6 * normalize(R²) + 0.4 * normalize(1 - normalize(MAPE)),
// where normalize is min-max over the candidate set. Higher is better.
const (
	r2Weight   = 0.6
	mapeWeight = 0.4
)

// Candidate is one model entering a comparison.
type Candidate struct {
	Name    string   `json:"name"`
	Metrics *Metrics `json:"metrics"`
}

// Ranked is one comparison row with its composite score.
type Ranked struct {
	Name      string   `json:"name"`
	Metrics   *Metrics `json:"metrics"`
	Composite float64  `json:"composite"`
	Rank      int      `json:"rank"`
}

// Comparison is the result of ranking candidate models.
type Comparison struct {
	Ranking []Ranked `json:"ranking"` // best first
	Best    string   `json:"best"`
}

// CompareModels ranks candidates by the composite score.
func CompareModels(candidates []Candidate) (*Comparison, error) {
	if len(candidates) == 0 {
		return nil, &domain.ValidationError{Field: "candidates", Reason: "no models to compare"}
	}
	for _, c := range candidates {
		if c.Metrics == nil {
			return nil, &domain.ValidationError{Field: "metrics", Reason: "candidate " + c.Name + " has no metrics"}
		}
	}

	r2s := make([]float64, len(candidates))
	mapes := make([]float64, len(candidates))
	for i, c := range candidates {
		r2s[i] = c.Metrics.R2
		mapes[i] = c.Metrics.MAPE
	}

	normR2 := minMaxNormalize(r2s)
	normMAPE := minMaxNormalize(mapes)

	inverted := make([]float64, len(candidates))
	for i := range inverted {
		inverted[i] = 1 - normMAPE[i]
	}
	normInverted := minMaxNormalize(inverted)

	ranking := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranking[i] = Ranked{
			Name:      c.Name,
			Metrics:   c.Metrics,
			Composite: r2Weight*normR2[i] + mapeWeight*normInverted[i],
		}
	}

	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].Composite > ranking[b].Composite
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}

	return &Comparison{
		Ranking: ranking,
		Best:    ranking[0].Name,
	}, nil
}

// minMaxNormalize maps values into [0, 1]. A constant slice maps to all
// ones so that equal candidates tie at full score rather than zero.
func minMaxNormalize(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]float64, len(values))
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}

	return out
}

// FeatureWeight is one entry of a feature-importance ranking.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// RankFeatureImportance sorts a feature-importance map descending by
// weight, breaking ties by name for deterministic output.
func RankFeatureImportance(importance map[string]float64) []FeatureWeight {
	out := make([]FeatureWeight, 0, len(importance))
	for name, w := range importance {
		out = append(out, FeatureWeight{Name: name, Weight: w})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].Name < out[b].Name
	})

	return out
}

// Report is one immutable evaluation run: aggregate metrics, residual
// diagnostics and the feature-importance ranking.
type Report struct {
	ModelType    domain.ModelType     `json:"model_type"`
	ModelVersion string               `json:"model_version"`
	Metrics      *Metrics             `json:"metrics"`
	Residuals    *ResidualDiagnostics `json:"residuals"`
	Importance   []FeatureWeight      `json:"feature_importance"`
	CreatedAt    time.Time            `json:"created_at"`
}
