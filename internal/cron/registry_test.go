package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(b, 0)
	registry.Register(nil, time.Hour)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, a, jobs[0])
	assert.Same(t, b, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryDueHonorsCadence(t *testing.T) {
	scan := &testJob{name: "stock-alerts"}
	cleanup := &testJob{name: "notification-cleanup"}
	registry := NewRegistry(scan)
	registry.Register(cleanup, time.Hour)

	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, []Job{scan, cleanup}, registry.Due(start))
	assert.Equal(t, []Job{scan}, registry.Due(start.Add(5*time.Minute)))
	assert.Equal(t, []Job{scan, cleanup}, registry.Due(start.Add(time.Hour)))
}
