package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry(nil, &stubJob{name: "a"})
	jobB := &stubJob{name: "b"}
	registry.Register(jobB)
	registry.Register(nil)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name())
	assert.Same(t, jobB, jobs[1])

	// callers get a copy
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(&stubJob{name: overdueJobName})

	job, ok := registry.Lookup(overdueJobName)
	require.True(t, ok)
	assert.Equal(t, overdueJobName, job.Name())

	_, ok = registry.Lookup("missing")
	assert.False(t, ok)
}
