package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/internal/automation"
)

type fakeScanner struct {
	report *automation.ScanReport
	err    error
	calls  int
}

func (f *fakeScanner) Scan(context.Context) (*automation.ScanReport, error) {
	f.calls++
	return f.report, f.err
}

func TestStockAlertJobRunsScan(t *testing.T) {
	scanner := &fakeScanner{report: &automation.ScanReport{Alerts: 3}}
	job, err := NewStockAlertJob(StockAlertJobParams{Logger: testLogger(), Scanner: scanner})
	require.NoError(t, err)
	require.Equal(t, "stock-alerts", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, scanner.calls)
}

func TestStockAlertJobReturnsScanError(t *testing.T) {
	boom := errors.New("boom")
	job, err := NewStockAlertJob(StockAlertJobParams{
		Logger:  testLogger(),
		Scanner: &fakeScanner{report: &automation.ScanReport{}, err: boom},
	})
	require.NoError(t, err)
	require.ErrorIs(t, job.Run(context.Background()), boom)
}

func TestNewStockAlertJobRequiresScanner(t *testing.T) {
	_, err := NewStockAlertJob(StockAlertJobParams{Logger: testLogger()})
	require.Error(t, err)
}
