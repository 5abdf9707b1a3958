package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one sweep the cron worker runs each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the sweeps in run order. Names are unique because they label
// metrics and log lines.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{names: make(map[string]struct{}, len(jobs))}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil sweep job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("sweep job name required")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("sweep job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered sweeps in run order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
