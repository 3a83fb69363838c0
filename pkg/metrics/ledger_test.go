package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetricsCountsMovementsAndUnits(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveMovement("reserved", 5)
	m.ObserveMovement("reserved", 3)
	m.ObserveMovement("adjustment", -2)
	m.IncBackorder("created")
	m.IncAlert("low_stock")
	m.IncConflict()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "stockroom_ledger_movements_total", "type", "reserved")
	require.NoError(t, err)
	require.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "stockroom_ledger_units_total", "type", "reserved")
	require.NoError(t, err)
	require.Equal(t, 8.0, got)

	got, err = fetchCounterValue(mfs, "stockroom_ledger_units_total", "type", "adjustment")
	require.NoError(t, err)
	require.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "stockroom_ledger_backorders_total", "outcome", "created")
	require.NoError(t, err)
	require.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "stockroom_alerts_raised_total", "type", "low_stock")
	require.NoError(t, err)
	require.Equal(t, 1.0, got)

	mf := family(mfs, "stockroom_ledger_version_conflicts_total")
	require.NotNil(t, mf)
	require.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
}

func TestNilLedgerMetricsIsNoop(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveMovement("in", 1)
	m.IncBackorder("created")
	m.IncAlert("x")
	m.IncConflict()

	NewLedgerMetrics(nil).ObserveMovement("in", 1)
}
