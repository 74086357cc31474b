package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch is returned when actual and predicted values disagree in
// length or are empty.
var ErrLengthMismatch = errors.New("actual and predicted values must be non-empty and equal length")

// ModelReport holds the two summary statistics for a regression run.
type ModelReport struct {
	RMSE     float64
	RSquared float64
}

// String formats both metrics at fixed 3-decimal precision for human consumption.
func (r ModelReport) String() string {
	return fmt.Sprintf("RMSE=%.3f R2=%.3f", r.RMSE, r.RSquared)
}

// Evaluate computes root-mean-squared error and the coefficient of
// determination for predictions against actuals. The model producing the
// predictions is an external collaborator; this owns only the metric contract.
func Evaluate(actual, predicted []float64) (ModelReport, error) {
	rmse, err := RMSE(actual, predicted)
	if err != nil {
		return ModelReport{}, err
	}
	r2, err := RSquared(actual, predicted)
	if err != nil {
		return ModelReport{}, err
	}
	return ModelReport{RMSE: rmse, RSquared: r2}, nil
}

// RMSE computes the root-mean-squared error of predicted against actual.
func RMSE(actual, predicted []float64) (float64, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0, ErrLengthMismatch
	}
	var sq float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(actual))), nil
}

// RSquared computes the coefficient of determination. A constant actual
// series with perfect predictions scores 1; with any residual it scores
// negative infinity, matching the standard definition.
func RSquared(actual, predicted []float64) (float64, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0, ErrLengthMismatch
	}

	var meanActual float64
	for _, v := range actual {
		meanActual += v
	}
	meanActual /= float64(len(actual))

	var ssRes, ssTot float64
	for i := range actual {
		r := actual[i] - predicted[i]
		t := actual[i] - meanActual
		ssRes += r * r
		ssTot += t * t
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return math.Inf(-1), nil
	}
	return 1 - ssRes/ssTot, nil
}
