package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

const (
	lostAfterDays        = 180
	atRiskAfterDays      = 90
	championOrderCount   = 10
	loyalOrderCount      = 5
	championValueMinimum = 10000
)

// OrderSummary is the slice of an order the cohort split needs.
type OrderSummary struct {
	CustomerID uuid.UUID
	CreatedAt  time.Time
	Total      decimal.Decimal
}

type CustomerCohort struct {
	CustomerID    uuid.UUID             `json:"customer_id"`
	Name          string                `json:"name"`
	Segment       enums.CustomerSegment `json:"segment"`
	OrderCount    int                   `json:"order_count"`
	TotalValue    decimal.Decimal       `json:"total_value"`
	LastOrderAt   *time.Time            `json:"last_order_at,omitempty"`
	DaysSinceLast int                   `json:"days_since_last"`
}

// CustomerRef names a customer for the cohort split.
type CustomerRef struct {
	ID   uuid.UUID
	Name string
}

// Cohorts assigns every customer exactly one segment. Checks run in order:
// no orders, lost, at risk, champions, loyal, new, regular.
func Cohorts(customers []CustomerRef, orders []OrderSummary, now time.Time) []CustomerCohort {
	type tally struct {
		count int
		total decimal.Decimal
		last  time.Time
	}
	byCustomer := make(map[uuid.UUID]*tally, len(customers))
	for _, order := range orders {
		t, ok := byCustomer[order.CustomerID]
		if !ok {
			t = &tally{total: decimal.Zero}
			byCustomer[order.CustomerID] = t
		}
		t.count++
		t.total = t.total.Add(order.Total)
		if order.CreatedAt.After(t.last) {
			t.last = order.CreatedAt
		}
	}

	results := make([]CustomerCohort, 0, len(customers))
	for _, customer := range customers {
		cohort := CustomerCohort{CustomerID: customer.ID, Name: customer.Name, TotalValue: decimal.Zero}
		t, ok := byCustomer[customer.ID]
		if !ok || t.count == 0 {
			cohort.Segment = enums.CustomerSegmentProspect
			results = append(results, cohort)
			continue
		}
		last := t.last
		cohort.OrderCount = t.count
		cohort.TotalValue = t.total
		cohort.LastOrderAt = &last
		cohort.DaysSinceLast = int(now.Sub(last).Hours() / 24)
		cohort.Segment = segmentFor(t.count, t.total, cohort.DaysSinceLast)
		results = append(results, cohort)
	}
	return results
}

func segmentFor(count int, total decimal.Decimal, daysSinceLast int) enums.CustomerSegment {
	switch {
	case daysSinceLast > lostAfterDays:
		return enums.CustomerSegmentLost
	case daysSinceLast > atRiskAfterDays:
		return enums.CustomerSegmentAtRisk
	case count >= championOrderCount || total.GreaterThanOrEqual(decimal.NewFromInt(championValueMinimum)):
		return enums.CustomerSegmentChampions
	case count >= loyalOrderCount:
		return enums.CustomerSegmentLoyal
	case count == 1:
		return enums.CustomerSegmentNew
	default:
		return enums.CustomerSegmentRegular
	}
}

// SegmentCounts tallies cohorts per segment.
func SegmentCounts(cohorts []CustomerCohort) map[enums.CustomerSegment]int {
	counts := make(map[enums.CustomerSegment]int)
	for _, c := range cohorts {
		counts[c.Segment]++
	}
	return counts
}
