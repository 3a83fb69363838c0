package cron

import (
	"context"
	"sync"
	"time"
)

// Job is one unit of periodic work, e.g. the stock alert scan.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry holds jobs with their own cadence. A job registered with a zero
// cadence runs on every cycle of the service.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
}

// NewRegistry registers jobs to run on every cycle.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job, 0)
	}
	return r
}

// Register adds job; nil jobs are ignored so optional jobs can be passed unconditionally.
func (r *Registry) Register(job Job, every time.Duration) {
	if job == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &entry{job: job, every: every})
}

// Jobs returns every registered job in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.job)
	}
	return out
}

// Due returns the jobs whose cadence has elapsed at now and marks them as run.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Job
	for _, e := range r.entries {
		if e.every > 0 && !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.every {
			continue
		}
		e.lastRun = now
		due = append(due, e.job)
	}
	return due
}
