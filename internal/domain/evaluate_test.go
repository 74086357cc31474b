package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Run("perfect predictions", func(t *testing.T) {
		actual := []float64{1, 2, 3, 4}

		report, err := Evaluate(actual, actual)

		require.NoError(t, err)
		assert.Zero(t, report.RMSE)
		assert.Equal(t, 1.0, report.RSquared)
		assert.Equal(t, "RMSE=0.000 R2=1.000", report.String())
	})

	t.Run("known residuals", func(t *testing.T) {
		actual := []float64{3, -0.5, 2, 7}
		predicted := []float64{2.5, 0.0, 2, 8}

		report, err := Evaluate(actual, predicted)

		require.NoError(t, err)
		assert.InDelta(t, 0.6124, report.RMSE, 1e-4)
		assert.InDelta(t, 0.9486, report.RSquared, 1e-4)
		assert.Equal(t, "RMSE=0.612 R2=0.949", report.String())
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := Evaluate([]float64{1, 2}, []float64{1})
		assert.ErrorIs(t, err, ErrLengthMismatch)

		_, err = Evaluate(nil, nil)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("constant actuals", func(t *testing.T) {
		report, err := Evaluate([]float64{5, 5, 5}, []float64{5, 5, 5})
		require.NoError(t, err)
		assert.Equal(t, 1.0, report.RSquared)
	})
}
