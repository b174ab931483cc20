package analytics

import (
	"errors"
	"fmt"
	"math"
)

// errNoSamples is returned when a scaler is fitted on an empty matrix.
var errNoSamples = errors.New("no samples to fit")

// Scaler standardizes feature vectors to zero mean and unit variance,
// column-wise. Fields are exported so the scaler can travel inside the
// persisted model artifact.
type Scaler struct {
	Means  []float64
	Scales []float64
}

// Fit computes per-column mean and standard deviation. Columns with zero
// spread get scale 1 so constant features pass through unchanged.
func (s *Scaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errNoSamples
	}
	cols := len(X[0])
	s.Means = make([]float64, cols)
	s.Scales = make([]float64, cols)

	for j := 0; j < cols; j++ {
		col := make([]float64, len(X))
		for i, row := range X {
			if len(row) != cols {
				return fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), cols)
			}
			col[i] = row[j]
		}
		s.Means[j] = mean(col)
		sd := math.Sqrt(popVariance(col))
		if sd == 0 {
			sd = 1
		}
		s.Scales[j] = sd
	}
	return nil
}

// Transform standardizes one vector. The vector must match the fitted width.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("feature count mismatch: got %d, want %d", len(x), len(s.Means))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

// TransformAll standardizes a whole matrix.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
