package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/metrics"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

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

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	lock := &fakeLock{}

	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)

	families, err := reg.Gather()
	require.NoError(t, err)
	series := map[string]int{}
	for _, mf := range families {
		series[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 2, series["library_cron_job_duration_seconds"])
	assert.Equal(t, 1, series["library_cron_job_success_total"])
	assert.Equal(t, 1, series["library_cron_job_failure_total"])
}

func TestServiceRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "overdue"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
}

func TestServiceRunOnceReturnsLockErrors(t *testing.T) {
	job := &testJob{name: "overdue"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquireErr: errors.New("redis down")},
	})
	require.NoError(t, err)

	require.ErrorContains(t, service.RunOnce(context.Background()), "redis down")
	assert.Zero(t, job.runs)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "overdue"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: testLogger()})
	require.Error(t, err)
}
