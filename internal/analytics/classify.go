package analytics

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

const (
	abcThresholdA = 0.80
	abcThresholdB = 0.95
	xyzThresholdX = 0.5
	xyzThresholdY = 1.0
	// XYZWindowMonths is the trailing demand window used for variability.
	XYZWindowMonths = 6
)

// ProductRevenue is one product's revenue over the trailing twelve months.
type ProductRevenue struct {
	ProductID uuid.UUID
	Revenue   decimal.Decimal
}

type ABCResult struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Revenue         decimal.Decimal `json:"revenue"`
	Share           float64         `json:"share"`
	CumulativeShare float64         `json:"cumulative_share"`
	Class           enums.ABCClass  `json:"class"`
}

// ABC ranks products by revenue and bands them on cumulative share:
// up to 80% is A, up to 95% is B, the tail is C. Zero total revenue puts every
// product in C.
func ABC(revenues []ProductRevenue) []ABCResult {
	sorted := make([]ProductRevenue, len(revenues))
	copy(sorted, revenues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue.GreaterThan(sorted[j].Revenue)
	})

	total := decimal.Zero
	for _, r := range sorted {
		total = total.Add(r.Revenue)
	}

	results := make([]ABCResult, 0, len(sorted))
	cumulative := decimal.Zero
	for _, r := range sorted {
		result := ABCResult{ProductID: r.ProductID, Revenue: r.Revenue, Class: enums.ABCClassC}
		if total.IsPositive() {
			cumulative = cumulative.Add(r.Revenue)
			share, _ := r.Revenue.Div(total).Float64()
			cum, _ := cumulative.Div(total).Float64()
			result.Share = share
			result.CumulativeShare = cum
			switch {
			case cum <= abcThresholdA:
				result.Class = enums.ABCClassA
			case cum <= abcThresholdB:
				result.Class = enums.ABCClassB
			}
		}
		results = append(results, result)
	}
	return results
}

// ProductDemand is a product's monthly unit demand, oldest month first.
type ProductDemand struct {
	ProductID uuid.UUID
	Monthly   []int
}

type XYZResult struct {
	ProductID uuid.UUID      `json:"product_id"`
	Mean      float64        `json:"mean"`
	StdDev    float64        `json:"std_dev"`
	CV        float64        `json:"cv"`
	Class     enums.XYZClass `json:"class"`
}

// XYZ bands products by the coefficient of variation of their last six months
// of demand. A zero mean is treated as erratic.
func XYZ(demand []ProductDemand) []XYZResult {
	results := make([]XYZResult, 0, len(demand))
	for _, d := range demand {
		window := trailing(d.Monthly, XYZWindowMonths)
		mean, stddev := meanStdDev(window)
		result := XYZResult{ProductID: d.ProductID, Mean: mean, StdDev: stddev, Class: enums.XYZClassZ}
		if mean > 0 {
			result.CV = stddev / mean
			switch {
			case result.CV <= xyzThresholdX:
				result.Class = enums.XYZClassX
			case result.CV <= xyzThresholdY:
				result.Class = enums.XYZClassY
			}
		}
		results = append(results, result)
	}
	return results
}

func trailing(values []int, n int) []int {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []int) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
