package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

func ordersFor(customer uuid.UUID, count int, at time.Time, value int64) []OrderSummary {
	out := make([]OrderSummary, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, OrderSummary{CustomerID: customer, CreatedAt: at, Total: decimal.NewFromInt(value)})
	}
	return out
}

func TestCohortsSegments(t *testing.T) {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -3)

	prospect := CustomerRef{ID: uuid.New(), Name: "prospect"}
	lost := CustomerRef{ID: uuid.New(), Name: "lost"}
	atRisk := CustomerRef{ID: uuid.New(), Name: "at risk"}
	champion := CustomerRef{ID: uuid.New(), Name: "champion"}
	whale := CustomerRef{ID: uuid.New(), Name: "whale"}
	loyal := CustomerRef{ID: uuid.New(), Name: "loyal"}
	newbie := CustomerRef{ID: uuid.New(), Name: "new"}
	regular := CustomerRef{ID: uuid.New(), Name: "regular"}

	var orders []OrderSummary
	orders = append(orders, ordersFor(lost.ID, 12, now.AddDate(0, 0, -200), 100)...)
	orders = append(orders, ordersFor(atRisk.ID, 3, now.AddDate(0, 0, -100), 100)...)
	orders = append(orders, ordersFor(champion.ID, 10, recent, 10)...)
	orders = append(orders, ordersFor(whale.ID, 2, recent, 5000)...)
	orders = append(orders, ordersFor(loyal.ID, 5, recent, 10)...)
	orders = append(orders, ordersFor(newbie.ID, 1, recent, 10)...)
	orders = append(orders, ordersFor(regular.ID, 2, recent, 10)...)

	customers := []CustomerRef{prospect, lost, atRisk, champion, whale, loyal, newbie, regular}
	cohorts := Cohorts(customers, orders, now)
	require.Len(t, cohorts, len(customers))

	want := []enums.CustomerSegment{
		enums.CustomerSegmentProspect,
		enums.CustomerSegmentLost,
		enums.CustomerSegmentAtRisk,
		enums.CustomerSegmentChampions,
		enums.CustomerSegmentChampions,
		enums.CustomerSegmentLoyal,
		enums.CustomerSegmentNew,
		enums.CustomerSegmentRegular,
	}
	for i, c := range cohorts {
		assert.Equal(t, want[i], c.Segment, c.Name)
	}
	assert.Nil(t, cohorts[0].LastOrderAt)
	assert.Equal(t, 3, cohorts[3].DaysSinceLast)
	assert.True(t, cohorts[4].TotalValue.Equal(decimal.NewFromInt(10000)))

	counts := SegmentCounts(cohorts)
	assert.Equal(t, 2, counts[enums.CustomerSegmentChampions])
	assert.Equal(t, 1, counts[enums.CustomerSegmentProspect])
}

func TestMonthBuckets(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsAgo(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 3, MonthsAgo(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), MonthStart(now, 5))

	idx, ok := bucketIndex(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), now, 6)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	_, ok = bucketIndex(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), now, 6)
	assert.False(t, ok)
}
