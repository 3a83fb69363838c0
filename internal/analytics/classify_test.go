package analytics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

func TestABCBandsByCumulativeShare(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	results := ABC([]ProductRevenue{
		{ProductID: d, Revenue: decimal.NewFromInt(5)},
		{ProductID: a, Revenue: decimal.NewFromInt(70)},
		{ProductID: c, Revenue: decimal.NewFromInt(10)},
		{ProductID: b, Revenue: decimal.NewFromInt(15)},
	})

	require.Len(t, results, 4)
	assert.Equal(t, a, results[0].ProductID)
	assert.Equal(t, enums.ABCClassA, results[0].Class)
	assert.InDelta(t, 0.70, results[0].CumulativeShare, 1e-9)
	assert.Equal(t, enums.ABCClassB, results[1].Class)
	assert.InDelta(t, 0.85, results[1].CumulativeShare, 1e-9)
	assert.Equal(t, enums.ABCClassB, results[2].Class)
	assert.InDelta(t, 0.95, results[2].CumulativeShare, 1e-9)
	assert.Equal(t, enums.ABCClassC, results[3].Class)
}

func TestABCZeroRevenueIsAllC(t *testing.T) {
	results := ABC([]ProductRevenue{
		{ProductID: uuid.New(), Revenue: decimal.Zero},
		{ProductID: uuid.New(), Revenue: decimal.Zero},
	})
	for _, r := range results {
		assert.Equal(t, enums.ABCClassC, r.Class)
		assert.Zero(t, r.CumulativeShare)
	}
	assert.Empty(t, ABC(nil))
}

func TestXYZBandsByVariation(t *testing.T) {
	steady, bumpy, erratic, idle := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	results := XYZ([]ProductDemand{
		{ProductID: steady, Monthly: []int{10, 10, 10, 10, 10, 10}},
		{ProductID: bumpy, Monthly: []int{0, 20, 0, 20, 0, 20}},
		{ProductID: erratic, Monthly: []int{0, 0, 0, 0, 0, 60}},
		{ProductID: idle, Monthly: []int{0, 0, 0, 0, 0, 0}},
	})

	require.Len(t, results, 4)
	assert.Equal(t, enums.XYZClassX, results[0].Class)
	assert.Zero(t, results[0].CV)
	assert.Equal(t, enums.XYZClassY, results[1].Class)
	assert.InDelta(t, 1.0, results[1].CV, 1e-9)
	assert.Equal(t, enums.XYZClassZ, results[2].Class)
	assert.Equal(t, enums.XYZClassZ, results[3].Class)
}

func TestXYZUsesTrailingSixMonths(t *testing.T) {
	results := XYZ([]ProductDemand{{ProductID: uuid.New(), Monthly: []int{500, 0, 8, 8, 8, 8, 8, 8}}})
	require.Len(t, results, 1)
	assert.Equal(t, enums.XYZClassX, results[0].Class)
	assert.InDelta(t, 8.0, results[0].Mean, 1e-9)
}
