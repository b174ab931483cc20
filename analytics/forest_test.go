package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainForestConstantTarget(t *testing.T) {
	X := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	y := []float64{42, 42, 42, 42}

	f, err := TrainForest(X, y)
	require.NoError(t, err)

	got, err := f.Predict([]float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

func TestTrainForestDeterministic(t *testing.T) {
	X := [][]float64{{1, 1}, {2, 4}, {3, 9}, {4, 16}, {5, 25}, {6, 36}}
	y := []float64{10, 20, 30, 40, 50, 60}

	f1, err := TrainForest(X, y)
	require.NoError(t, err)
	f2, err := TrainForest(X, y)
	require.NoError(t, err)

	for _, x := range X {
		p1, err := f1.Predict(x)
		require.NoError(t, err)
		p2, err := f2.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestForestPredictionsStayInTargetRange(t *testing.T) {
	X := [][]float64{{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}}
	y := []float64{100, 110, 120, 130, 140, 150, 160, 170}

	f, err := TrainForest(X, y)
	require.NoError(t, err)

	// tree leaves average training targets, so output is bounded by them
	for _, x := range [][]float64{{0, 0}, {4.5, 0}, {100, 0}} {
		got, err := f.Predict(x)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 100.0)
		assert.LessOrEqual(t, got, 170.0)
	}
}

func TestForestRejectsWrongWidth(t *testing.T) {
	f, err := TrainForest([][]float64{{1, 2}, {3, 4}}, []float64{1, 2})
	require.NoError(t, err)

	_, err = f.Predict([]float64{1})
	assert.ErrorContains(t, err, "feature count mismatch")
}

func TestTrainForestRejectsBadInput(t *testing.T) {
	_, err := TrainForest(nil, nil)
	assert.Error(t, err)

	_, err = TrainForest([][]float64{{1, 2}, {3}}, []float64{1, 2})
	assert.Error(t, err)

	_, err = TrainForest([][]float64{{1, 2}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestKMeansSmallInputs(t *testing.T) {
	// fewer points than clusters: identity assignment
	assign := kMeans([][]float64{{1, 1}, {9, 9}}, 3, kmeansSeed)
	assert.Equal(t, []int{0, 1}, assign)

	assert.Empty(t, kMeans(nil, 3, kmeansSeed))
}

func TestKMeansSeparatesObviousClusters(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.2}, {0.2, 0.1},
		{10, 10}, {10.1, 10.2}, {9.9, 10},
		{-10, 10}, {-10.2, 9.8}, {-9.9, 10.1},
	}

	assign := kMeans(points, 3, kmeansSeed)
	require.Len(t, assign, 9)

	// each batch of three lands in one cluster, and the batches differ
	groups := make(map[int]int)
	for batch := 0; batch < 3; batch++ {
		c := assign[batch*3]
		assert.Equal(t, c, assign[batch*3+1])
		assert.Equal(t, c, assign[batch*3+2])
		groups[c]++
	}
	assert.Len(t, groups, 3)
}

func TestKMeansDeterministic(t *testing.T) {
	points := [][]float64{{1, 2}, {8, 1}, {3, 7}, {5, 5}, {0, 9}, {7, 7}}
	assert.Equal(t, kMeans(points, 3, kmeansSeed), kMeans(points, 3, kmeansSeed))
}
