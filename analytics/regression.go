package analytics

import "errors"

// errSingularFit is returned when a least-squares fit has no usable spread in
// the independent variable.
var errSingularFit = errors.New("singular fit: no variance in x")

// linearFit computes the simple least-squares line y = slope*x + intercept.
// Used for the log-log elasticity regression.
func linearFit(xs, ys []float64) (slope, intercept float64, err error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, 0, errors.New("need at least two paired observations")
	}

	mx := mean(xs)
	my := mean(ys)

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return 0, 0, errSingularFit
	}

	slope = sxy / sxx
	intercept = my - slope*mx
	return slope, intercept, nil
}
