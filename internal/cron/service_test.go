package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/pkg/logger"
	"github.com/angelmondragon/stockroom/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunOnceRunsEveryJobEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "stock-alerts"}
	bad := &testJob{name: "notification-cleanup", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(ok, bad),
		Lock:     NewLocalLock(),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, 1, ok.runs)
	require.Equal(t, 1, bad.runs)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "stockroom_cron_job_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, l := range m.GetLabel() {
				key += l.GetValue() + "/"
			}
			outcomes[key] = m.GetCounter().GetValue()
		}
	}
	require.Equal(t, map[string]float64{
		"stock-alerts/success/":         1,
		"notification-cleanup/failure/": 1,
	}, outcomes)
}

func TestRunOnceRunsSlowJobsOnTheirCadence(t *testing.T) {
	scan := &testJob{name: "stock-alerts"}
	cleanup := &testJob{name: "notification-cleanup"}
	registry := NewRegistry(scan)
	registry.Register(cleanup, time.Hour)

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     NewLocalLock(),
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		now = now.Add(5 * time.Minute)
	}
	require.Equal(t, 3, scan.runs)
	require.Equal(t, 1, cleanup.runs)

	now = now.Add(time.Hour)
	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cleanup.runs)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	lock := NewLocalLock()
	job := &testJob{name: "stock-alerts"}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: NewRegistry(job), Lock: lock})
	require.NoError(t, err)

	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, held)

	ran, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.False(t, ran)
	require.Zero(t, job.runs)

	require.NoError(t, lock.Release(context.Background()))
	ran, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, 1, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "stock-alerts"}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: NewRegistry(job), Lock: NewLocalLock()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
	require.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: NewLocalLock()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: testLogger()})
	require.Error(t, err)
}
