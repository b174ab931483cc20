package analytics

import (
	"math"
	"math/rand"
)

// Clustering constants. The fixed seed makes segment assignment reproducible
// across runs; treat it as configuration, not a hidden default.
const (
	segmentClusters = 3
	kmeansSeed      = 42
	kmeansMaxIter   = 100
)

// kMeans partitions points into k clusters and returns one cluster index per
// point. Centroids are initialized from k distinct input points chosen by the
// seeded generator; ties in assignment go to the lowest cluster index. Empty
// clusters are repaired by moving a point over from the largest cluster, so
// every cluster ends non-empty whenever len(points) >= k.
func kMeans(points [][]float64, k int, seed int64) []int {
	n := len(points)
	assign := make([]int, n)
	if n == 0 || k <= 1 {
		return assign
	}
	if n <= k {
		for i := range assign {
			assign[i] = i
		}
		return assign
	}

	rng := rand.New(rand.NewSource(seed))
	dims := len(points[0])

	centroids := make([][]float64, k)
	for i, p := range rng.Perm(n)[:k] {
		centroids[i] = append([]float64(nil), points[p]...)
	}

	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				d := sqDist(p, centroid)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		repairEmptyClusters(assign, k)

		// recompute centroids
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}
	return assign
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// repairEmptyClusters reassigns the last member of the largest cluster to any
// cluster that ended up empty. Deterministic.
func repairEmptyClusters(assign []int, k int) {
	for {
		counts := make([]int, k)
		for _, c := range assign {
			counts[c]++
		}
		empty := -1
		for c, n := range counts {
			if n == 0 {
				empty = c
				break
			}
		}
		if empty < 0 {
			return
		}
		largest := 0
		for c, n := range counts {
			if n > counts[largest] {
				largest = c
			}
		}
		for i := len(assign) - 1; i >= 0; i-- {
			if assign[i] == largest {
				assign[i] = empty
				break
			}
		}
	}
}

// standardizeColumns zero-means and unit-scales each column in place-safe
// copies, for clustering distance comparability.
func standardizeColumns(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return nil
	}
	var s Scaler
	if err := s.Fit(points); err != nil {
		return points
	}
	out, err := s.TransformAll(points)
	if err != nil {
		return points
	}
	return out
}
