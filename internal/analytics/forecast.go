package analytics

import "math"

const (
	// ForecastWindowMonths is the history fed to the regression.
	ForecastWindowMonths = 12
	// ForecastHorizonMonths is how many months are projected.
	ForecastHorizonMonths = 3
)

type ForecastResult struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	Projection []int   `json:"projection"`
}

// Forecast fits an ordinary least squares line over x = 0..n-1 on the last
// twelve months and projects the next three, floored at zero and rounded.
func Forecast(monthly []int) ForecastResult {
	history := trailing(monthly, ForecastWindowMonths)
	n := float64(len(history))
	result := ForecastResult{Projection: make([]int, ForecastHorizonMonths)}
	if len(history) == 0 {
		return result
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range history {
		x := float64(i)
		y := float64(v)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denominator := n*sumXX - sumX*sumX
	if denominator != 0 {
		result.Slope = (n*sumXY - sumX*sumY) / denominator
	}
	result.Intercept = (sumY - result.Slope*sumX) / n

	for i := range result.Projection {
		x := n + float64(i)
		projected := result.Intercept + result.Slope*x
		result.Projection[i] = int(math.Round(math.Max(0, projected)))
	}
	return result
}
