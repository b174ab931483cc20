package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerFitTransform(t *testing.T) {
	X := [][]float64{
		{1, 10, 7},
		{3, 20, 7},
		{5, 30, 7},
	}

	s := &Scaler{}
	require.NoError(t, s.Fit(X))

	out, err := s.Transform([]float64{3, 20, 7})
	require.NoError(t, err)
	// column means transform to zero; constant column passes through with
	// scale 1
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 0, out[1], 1e-9)
	assert.InDelta(t, 0, out[2], 1e-9)

	out, err = s.Transform([]float64{5, 30, 8})
	require.NoError(t, err)
	assert.Greater(t, out[0], 0.0)
	assert.InDelta(t, 1, out[2], 1e-9) // (8-7)/1
}

func TestScalerRejectsWrongWidth(t *testing.T) {
	s := &Scaler{}
	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))

	_, err := s.Transform([]float64{1, 2, 3})
	assert.ErrorContains(t, err, "feature count mismatch")
}

func TestScalerEmptyInput(t *testing.T) {
	s := &Scaler{}
	assert.ErrorIs(t, s.Fit(nil), errNoSamples)
}

func TestLinearFitRecoversLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{5, 7, 9, 11} // y = 2x + 3

	slope, intercept, err := linearFit(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 2, slope, 1e-9)
	assert.InDelta(t, 3, intercept, 1e-9)
}

func TestLinearFitSingular(t *testing.T) {
	_, _, err := linearFit([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, errSingularFit)
}

func TestStats(t *testing.T) {
	vals := []float64{2, 4, 6, 8}
	assert.Equal(t, 5.0, mean(vals))
	assert.Equal(t, 5.0, popVariance(vals))
	assert.InDelta(t, 2.582, sampleStdDev(vals), 0.001)
	assert.Equal(t, 5.0, median(vals))
	assert.Equal(t, 4.0, median([]float64{8, 2, 4}))
}
