package training

import (
	"fmt"
	"math/rand"
	"sort"
)

// Ensemble is a trained gradient-boosted tree regressor operating in
// transformed target space. It is immutable after training and safe
// to share across concurrent readers.
type Ensemble struct {
	BaseScore   float64 `json:"base_score"`
	NumFeatures int     `json:"num_features"`
	Trees       []Tree  `json:"trees"`
}

// Predict scores one feature row in transformed space.
func (e *Ensemble) Predict(values []float64) (float64, error) {
	if len(values) != e.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", e.NumFeatures, len(values))
	}
	pred := e.BaseScore
	for i := range e.Trees {
		pred += e.Trees[i].Predict(values)
	}
	return pred, nil
}

// grower builds one tree per boosting round over pre-binned feature
// columns. Binning the training matrix once keeps split search linear
// in rows per level.
type grower struct {
	cfg     TrainerConfig
	rows    [][]float64 // raw feature rows
	binned  [][]uint8   // rows x features, bin index per value
	cuts    [][]float64 // per feature, ascending bin upper edges
	rng     *rand.Rand
	numCols int

	// split gain per feature for each grown round, so importance can
	// be computed over the rounds that survive truncation
	roundGains [][]float64
}

func newGrower(cfg TrainerConfig, rows [][]float64) *grower {
	g := &grower{
		cfg:     cfg,
		rows:    rows,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		numCols: len(rows[0]),
	}
	g.buildBins()
	return g
}

// buildBins computes quantile cut points per feature and bins every
// training value. Cut points double as split thresholds, so inference
// on raw floats routes identically.
func (g *grower) buildBins() {
	g.cuts = make([][]float64, g.numCols)
	sorted := make([]float64, len(g.rows))

	for f := 0; f < g.numCols; f++ {
		for i, row := range g.rows {
			sorted[i] = row[f]
		}
		sort.Float64s(sorted)

		var cuts []float64
		for b := 1; b < g.cfg.MaxBins; b++ {
			v := sorted[len(sorted)*b/g.cfg.MaxBins]
			if len(cuts) == 0 || v > cuts[len(cuts)-1] {
				cuts = append(cuts, v)
			}
		}
		g.cuts[f] = cuts
	}

	g.binned = make([][]uint8, len(g.rows))
	for i, row := range g.rows {
		bins := make([]uint8, g.numCols)
		for f, v := range row {
			bins[f] = uint8(sort.SearchFloat64s(g.cuts[f], v))
		}
		g.binned[i] = bins
	}
}

type nodeJob struct {
	id    int
	rows  []int
	depth int
}

// grow fits one tree to the current gradients. grad and hess are
// indexed like the training rows.
func (g *grower) grow(grad, hess []float64) Tree {
	// Row subsample for this round
	var rowIdx []int
	for i := range g.rows {
		if g.rng.Float64() < g.cfg.Subsample {
			rowIdx = append(rowIdx, i)
		}
	}
	if len(rowIdx) == 0 {
		rowIdx = make([]int, len(g.rows))
		for i := range rowIdx {
			rowIdx[i] = i
		}
	}

	// Column subsample for this round
	nCols := int(float64(g.numCols)*g.cfg.Colsample + 0.5)
	if nCols < 1 {
		nCols = 1
	}
	perm := g.rng.Perm(g.numCols)[:nCols]
	sort.Ints(perm)

	gains := make([]float64, g.numCols)
	g.roundGains = append(g.roundGains, gains)

	tree := Tree{Nodes: []Node{{}}}
	queue := []nodeJob{{id: 0, rows: rowIdx, depth: 0}}

	for len(queue) > 0 {
		job := queue[0]
		queue = queue[1:]

		var gSum, hSum float64
		for _, r := range job.rows {
			gSum += grad[r]
			hSum += hess[r]
		}

		if job.depth >= g.cfg.MaxDepth {
			g.makeLeaf(&tree, job.id, gSum, hSum)
			continue
		}

		feature, bin, gain := g.bestSplit(job.rows, perm, grad, hess, gSum, hSum)
		if feature < 0 {
			g.makeLeaf(&tree, job.id, gSum, hSum)
			continue
		}
		gains[feature] += gain

		var left, right []int
		for _, r := range job.rows {
			if g.binned[r][feature] <= uint8(bin) {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}

		leftID := len(tree.Nodes)
		rightID := leftID + 1
		tree.Nodes = append(tree.Nodes, Node{}, Node{})
		tree.Nodes[job.id] = Node{
			Feature:   feature,
			Threshold: g.cuts[feature][bin],
			Left:      leftID,
			Right:     rightID,
		}

		queue = append(queue,
			nodeJob{id: leftID, rows: left, depth: job.depth + 1},
			nodeJob{id: rightID, rows: right, depth: job.depth + 1},
		)
	}

	return tree
}

func (g *grower) makeLeaf(tree *Tree, id int, gSum, hSum float64) {
	w := leafWeight(gSum, hSum, g.cfg.Alpha, g.cfg.Lambda)
	tree.Nodes[id] = Node{Leaf: true, Value: g.cfg.LearningRate * w}
}

// bestSplit scans histogram bins of the sampled features and returns
// the best (feature, bin) pair, or feature -1 when no split improves
// on the regularized objective or respects min child weight.
func (g *grower) bestSplit(rows, features []int, grad, hess []float64, gSum, hSum float64) (int, int, float64) {
	bestFeature, bestBin := -1, -1
	bestGain := 0.0

	histG := make([]float64, g.cfg.MaxBins)
	histH := make([]float64, g.cfg.MaxBins)

	for _, f := range features {
		nBins := len(g.cuts[f]) + 1
		if nBins < 2 {
			continue
		}
		for b := 0; b < nBins; b++ {
			histG[b], histH[b] = 0, 0
		}
		for _, r := range rows {
			b := g.binned[r][f]
			histG[b] += grad[r]
			histH[b] += hess[r]
		}

		var gl, hl float64
		for b := 0; b < nBins-1; b++ {
			gl += histG[b]
			hl += histH[b]
			gr := gSum - gl
			hr := hSum - hl

			if hl < g.cfg.MinChildWeight || hr < g.cfg.MinChildWeight {
				continue
			}

			gain := splitGain(gl, hl, gr, hr, g.cfg.Alpha, g.cfg.Lambda)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestBin = b
			}
		}
	}

	return bestFeature, bestBin, bestGain
}
