package training

import "math"

// Node is one node of a regression tree in flat-array form. Internal
// nodes route on Feature <= Threshold; leaves carry the already
// shrunk output value.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a depth-limited regression tree stored as a node slice with
// the root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict routes one feature row to a leaf value.
func (t *Tree) Predict(values []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if values[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// leafWeight computes the regularized leaf output for gradient sum g
// and hessian sum h: -soft(g, alpha) / (h + lambda). The L1 term
// soft-thresholds the gradient, the L2 term damps the denominator.
func leafWeight(g, h, alpha, lambda float64) float64 {
	var t float64
	switch {
	case g > alpha:
		t = g - alpha
	case g < -alpha:
		t = g + alpha
	default:
		return 0
	}
	return -t / (h + lambda)
}

// splitGain scores a candidate split against keeping the node whole,
// using the standard second-order gain with L1/L2 regularization.
func splitGain(gl, hl, gr, hr, alpha, lambda float64) float64 {
	score := func(g, h float64) float64 {
		a := math.Abs(g) - alpha
		if a <= 0 {
			return 0
		}
		return a * a / (h + lambda)
	}
	return 0.5 * (score(gl, hl) + score(gr, hr) - score(gl+gr, hl+hr))
}
