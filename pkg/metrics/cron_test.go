package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.Observe("stock-alerts", 250*time.Millisecond, nil)
	m.Observe("stock-alerts", time.Second, errors.New("scan failed"))
	m.Observe("notification-cleanup", 10*time.Millisecond, nil)
	m.IncSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := family(mfs, "stockroom_cron_job_runs_total")
	require.NotNil(t, runs)
	outcomes := map[string]float64{}
	for _, metric := range runs.GetMetric() {
		outcomes[label(metric, "job")+"/"+label(metric, "outcome")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"stock-alerts/success":         1,
		"stock-alerts/failure":         1,
		"notification-cleanup/success": 1,
	}, outcomes)

	last := family(mfs, "stockroom_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	assert.Len(t, last.GetMetric(), 2)

	skipped := family(mfs, "stockroom_cron_cycles_skipped_total")
	require.NotNil(t, skipped)
	assert.Equal(t, 1.0, skipped.GetMetric()[0].GetCounter().GetValue())

	durations := family(mfs, "stockroom_cron_job_duration_seconds")
	require.NotNil(t, durations)
	for _, metric := range durations.GetMetric() {
		if label(metric, "job") == "stock-alerts" {
			assert.EqualValues(t, 2, metric.GetHistogram().GetSampleCount())
		}
	}
}

func TestBlankLabelsFallBackToUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	cron := NewCronJobMetrics(reg)
	ledger := NewLedgerMetrics(reg)

	cron.Observe("", time.Millisecond, nil)
	ledger.ObserveMovement("", 2)
	ledger.IncAlert("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs, err := fetchCounterValue(mfs, "stockroom_cron_job_runs_total", "job", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, runs)
	alerts, err := fetchCounterValue(mfs, "stockroom_alerts_raised_total", "type", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, alerts)
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	m.Observe("x", time.Second, nil)
	m.IncSkipped()

	NewCronJobMetrics(nil).Observe("", time.Second, errors.New("x"))
}

func family(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func label(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, labelName, value string) (float64, error) {
	mf := family(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label(metric, labelName) == value {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, labelName, value)
}
