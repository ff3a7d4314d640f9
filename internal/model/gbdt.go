package model

import (
	"math"
	"math/rand"
)

// BoosterConfig contains configuration for the gradient-boosted
// regression tree fit.
type BoosterConfig struct {
	// Trees is the number of boosting rounds.
	// Default: 100.
	Trees int

	// MaxDepth limits each regression tree.
	// Default: 4.
	MaxDepth int

	// LearningRate shrinks each tree's contribution.
	// Typical range: 0.01-0.3. Default: 0.1.
	LearningRate float64

	// MinSamplesLeaf is the minimum rows per leaf.
	// Default: 3.
	MinSamplesLeaf int

	// SubsampleRatio is the row fraction sampled per round.
	// Default: 0.8.
	SubsampleRatio float64

	// Seed for reproducible training. If 0, uses a default seed.
	Seed int64
}

// DefaultBoosterConfig returns default booster configuration.
func DefaultBoosterConfig() BoosterConfig {
	return BoosterConfig{
		Trees:          100,
		MaxDepth:       4,
		LearningRate:   0.1,
		MinSamplesLeaf: 3,
		SubsampleRatio: 0.8,
		Seed:           42,
	}
}

func (c BoosterConfig) withDefaults() BoosterConfig {
	d := DefaultBoosterConfig()
	if c.Trees <= 0 {
		c.Trees = d.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if c.SubsampleRatio <= 0 || c.SubsampleRatio > 1 {
		c.SubsampleRatio = d.SubsampleRatio
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}

	return c
}

// TreeNode is one node of a fitted regression tree. Leaves carry the
// predicted residual; internal nodes route on Feature <= Threshold.
// Fields are exported for gob serialization of trained artifacts.
type TreeNode struct {
	Feature   int
	Threshold float64
	Value     float64
	Left      *TreeNode
	Right     *TreeNode
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

func (n *TreeNode) predict(row []float64) float64 {
	node := n
	for !node.IsLeaf() {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}

	return node.Value
}

// Booster is a fitted gradient-boosted regression tree ensemble.
//
// Boosting fits each tree to the residuals of the ensemble so far:
//
//	F_0(x)   = mean(y)
//	F_m(x)   = F_{m-1}(x) + lr * tree_m(x)
//
// where tree_m minimizes squared error against y - F_{m-1}(x) on a row
// subsample. Gains accumulates each feature's total squared-error
// reduction across all splits, the raw material for feature importance.
type Booster struct {
	Base         float64
	LearningRate float64
	Trees        []*TreeNode
	Gains        []float64
}

// FitBooster trains a new ensemble on a dense matrix. Rows of x must all
// have the same width; y must have one target per row.
func FitBooster(x [][]float64, y []float64, cfg BoosterConfig) *Booster {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	numFeatures := 0
	if len(x) > 0 {
		numFeatures = len(x[0])
	}

	b := &Booster{
		Base:         mean(y),
		LearningRate: cfg.LearningRate,
		Gains:        make([]float64, numFeatures),
	}
	if len(x) == 0 {
		return b
	}

	// Current ensemble prediction per row.
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.Base
	}

	residuals := make([]float64, len(y))
	sampleSize := int(math.Ceil(cfg.SubsampleRatio * float64(len(x))))

	for m := 0; m < cfg.Trees; m++ {
		for i := range y {
			residuals[i] = y[i] - pred[i]
		}

		rows := sampleRows(rng, len(x), sampleSize)
		tree := growTree(x, residuals, rows, cfg, b.Gains, 0)
		if tree == nil {
			break
		}

		b.Trees = append(b.Trees, tree)
		for i := range pred {
			pred[i] += cfg.LearningRate * tree.predict(x[i])
		}
	}

	return b
}

// Predict returns the ensemble prediction for one row.
func (b *Booster) Predict(row []float64) float64 {
	out := b.Base
	for _, tree := range b.Trees {
		out += b.LearningRate * tree.predict(row)
	}

	return out
}

// Trained reports whether the booster holds any fitted trees.
func (b *Booster) Trained() bool {
	return b != nil && len(b.Trees) > 0
}

// growTree fits a depth-limited regression tree to the residuals of the
// sampled rows, accumulating split gains per feature.
func growTree(x [][]float64, residuals []float64, rows []int, cfg BoosterConfig, gains []float64, depth int) *TreeNode {
	if len(rows) == 0 {
		return nil
	}

	node := &TreeNode{Value: meanAt(residuals, rows)}
	if depth >= cfg.MaxDepth || len(rows) < 2*cfg.MinSamplesLeaf {
		return node
	}

	feature, threshold, gain := bestSplit(x, residuals, rows, cfg.MinSamplesLeaf)
	if gain <= 0 {
		return node
	}

	left, right := partition(x, rows, feature, threshold)
	if len(left) < cfg.MinSamplesLeaf || len(right) < cfg.MinSamplesLeaf {
		return node
	}

	gains[feature] += gain
	node.Feature = feature
	node.Threshold = threshold
	node.Left = growTree(x, residuals, left, cfg, gains, depth+1)
	node.Right = growTree(x, residuals, right, cfg, gains, depth+1)

	return node
}

// bestSplit finds the (feature, threshold) pair with the largest
// squared-error reduction over the rows. Candidate thresholds come from
// up to 16 evenly spaced row values per feature.
func bestSplit(x [][]float64, residuals []float64, rows []int, minLeaf int) (int, float64, float64) {
	const maxCandidates = 16

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	parentSSE := sseAt(residuals, rows)
	numFeatures := len(x[rows[0]])

	step := len(rows) / maxCandidates
	if step < 1 {
		step = 1
	}

	for f := 0; f < numFeatures; f++ {
		for i := 0; i < len(rows); i += step {
			threshold := x[rows[i]][f]

			var leftSum, rightSum float64
			var leftN, rightN int
			for _, r := range rows {
				if x[r][f] <= threshold {
					leftSum += residuals[r]
					leftN++
				} else {
					rightSum += residuals[r]
					rightN++
				}
			}
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}

			leftMean := leftSum / float64(leftN)
			rightMean := rightSum / float64(rightN)

			var childSSE float64
			for _, r := range rows {
				var d float64
				if x[r][f] <= threshold {
					d = residuals[r] - leftMean
				} else {
					d = residuals[r] - rightMean
				}
				childSSE += d * d
			}

			if gain := parentSSE - childSSE; gain > bestGain {
				bestFeature = f
				bestThreshold = threshold
				bestGain = gain
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0
	}

	return bestFeature, bestThreshold, bestGain
}

func partition(x [][]float64, rows []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return left, right
}

func sampleRows(rng *rand.Rand, n, size int) []int {
	if size >= n {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}

	perm := rng.Perm(n)

	return perm[:size]
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

func meanAt(values []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}

	var sum float64
	for _, r := range rows {
		sum += values[r]
	}

	return sum / float64(len(rows))
}

func sseAt(values []float64, rows []int) float64 {
	m := meanAt(values, rows)

	var sse float64
	for _, r := range rows {
		d := values[r] - m
		sse += d * d
	}

	return sse
}
