package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Forest hyperparameters. The seed is a configuration constant so repeated
// training runs on the same data produce the same model.
const (
	forestTrees    = 50
	forestMaxDepth = 8
	forestMinLeaf  = 2
	forestSeed     = 42
)

// TreeNode is one node of a regression tree. Exported fields so trees encode
// into the persisted model artifact.
type TreeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// Forest is a bagged ensemble of variance-reduction regression trees.
type Forest struct {
	Trees       []*TreeNode
	NumFeatures int
}

// TrainForest fits a seeded random forest regressor. Every row of X must have
// the same width; the fitted forest rejects prediction vectors of any other
// width.
func TrainForest(X [][]float64, y []float64) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.New("empty or mismatched training set")
	}
	cols := len(X[0])
	for i, row := range X {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged training matrix at row %d", i)
		}
	}

	rng := rand.New(rand.NewSource(forestSeed))
	f := &Forest{NumFeatures: cols}

	n := len(X)
	for t := 0; t < forestTrees; t++ {
		// bootstrap sample
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, growTree(X, y, idx, 0, rng))
	}
	return f, nil
}

// Predict averages the trees. The vector width is checked before any tree is
// consulted.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("feature count mismatch: got %d, want %d", len(x), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

func (n *TreeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func growTree(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *TreeNode {
	targets := make([]float64, len(idx))
	for i, id := range idx {
		targets[i] = y[id]
	}

	if depth >= forestMaxDepth || len(idx) < 2*forestMinLeaf || popVariance(targets) == 0 {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	feature, threshold, ok := bestSplit(X, y, idx, rng)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	var left, right []int
	for _, id := range idx {
		if X[id][feature] <= threshold {
			left = append(left, id)
		} else {
			right = append(right, id)
		}
	}
	if len(left) < forestMinLeaf || len(right) < forestMinLeaf {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, y, left, depth+1, rng),
		Right:     growTree(X, y, right, depth+1, rng),
	}
}

// bestSplit picks the (feature, threshold) pair minimizing the weighted
// child variance over a random feature subset.
func bestSplit(X [][]float64, y []float64, idx []int, rng *rand.Rand) (int, float64, bool) {
	cols := len(X[0])
	m := cols / 3
	if m < 1 {
		m = 1
	}
	features := rng.Perm(cols)[:m]

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, j := range features {
		values := make([]float64, 0, len(idx))
		for _, id := range idx {
			values = append(values, X[id][j])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2

			var left, right []float64
			for _, id := range idx {
				if X[id][j] <= threshold {
					left = append(left, y[id])
				} else {
					right = append(right, y[id])
				}
			}
			if len(left) < forestMinLeaf || len(right) < forestMinLeaf {
				continue
			}

			score := float64(len(left))*popVariance(left) + float64(len(right))*popVariance(right)
			if score < bestScore {
				bestScore = score
				bestFeature = j
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
