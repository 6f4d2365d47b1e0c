package schedule

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	name    string
	started chan struct{}
	release chan struct{}
	runs    int
	mu      sync.Mutex
}

func (j *blockingJob) Name() string { return j.name }

func (j *blockingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.release != nil {
		<-j.release
	}
	return nil
}

func (j *blockingJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	err := s.AddJob(&blockingJob{name: "cleanup"}, "not a cron spec")
	require.Error(t, err)
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&blockingJob{name: "cleanup"}, "* * * * *"))
	err := s.AddJob(&blockingJob{name: "cleanup"}, "*/5 * * * *")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already scheduled")
}

func TestGuardedRunSkipsOverlappingTick(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{
		name:    "slow",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	run := s.guardedRun(job)

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started

	// second tick fires while the first run is still in flight
	run()
	require.Equal(t, 1, job.runCount())

	close(job.release)
	<-done
	run()
	require.Equal(t, 2, job.runCount())
}
