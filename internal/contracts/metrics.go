package contracts

import "math"

// ComputeMetrics calculates MAE, RMSE, R² and MAPE for aligned
// actual/predicted slices.
//
// MAPE excludes zero actuals from its own sum (the denominator would
// explode) while those rows still count toward MAE and RMSE. R² is
// nil when the group has fewer than two distinct actual values, where
// the coefficient of determination is undefined.
func ComputeMetrics(actual, predicted []float64) Metrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return Metrics{}
	}

	var absSum, sqSum float64
	var mapeSum float64
	mapeN := 0

	var actualSum float64
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		actualSum += actual[i]

		if actual[i] != 0 {
			mapeSum += math.Abs(diff / actual[i])
			mapeN++
		}
	}

	m := Metrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
	}
	if mapeN > 0 {
		m.MAPE = mapeSum / float64(mapeN) * 100
	}

	mean := actualSum / float64(n)
	var ssTot float64
	distinct := false
	for i := 0; i < n; i++ {
		d := actual[i] - mean
		ssTot += d * d
		if actual[i] != actual[0] {
			distinct = true
		}
	}
	if distinct && ssTot > 0 {
		r2 := 1 - sqSum/ssTot
		m.R2 = &r2
	}

	return m
}
