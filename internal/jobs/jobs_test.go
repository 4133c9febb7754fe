package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"dentallab/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRelayer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRelayer) Handle(context.Context, commands.RelayOutboxCommand) (commands.RelayOutboxResult, error) {
	r.calls.Add(1)
	return commands.RelayOutboxResult{Fetched: 1, Published: 1}, r.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func relayCommand(t *testing.T) commands.RelayOutboxCommand {
	t.Helper()
	cmd, err := commands.NewRelayOutboxCommand(0, 0)
	require.NoError(t, err)
	return cmd
}

func TestOutboxRelayJob_RunsOnSchedule(t *testing.T) {
	relayer := &countingRelayer{}
	job := NewOutboxRelayJob(relayer, relayCommand(t), "* * * * * *", discard())

	require.NoError(t, job.Start())
	assert.Eventually(t, func() bool { return relayer.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	job.Stop()
}

func TestOutboxRelayJob_RejectsBadSchedule(t *testing.T) {
	job := NewOutboxRelayJob(&countingRelayer{}, relayCommand(t), "every now and then", discard())

	assert.Error(t, job.Start())
}

func TestOutboxRelayJob_RunSurvivesErrors(t *testing.T) {
	relayer := &countingRelayer{err: errors.New("database is down")}
	job := NewOutboxRelayJob(relayer, relayCommand(t), "", discard())

	job.run()
	job.run()

	assert.Equal(t, int32(2), relayer.calls.Load())
	assert.Equal(t, DefaultRelaySchedule, job.schedule)
}

type fakeJob struct {
	startErr error
	started  bool
	stopped  bool
	log      *[]string
	name     string
}

func (j *fakeJob) Start() error {
	if j.startErr != nil {
		return j.startErr
	}
	j.started = true
	*j.log = append(*j.log, "start "+j.name)
	return nil
}

func (j *fakeJob) Stop() {
	j.stopped = true
	*j.log = append(*j.log, "stop "+j.name)
}

func TestJobManager_StartStop(t *testing.T) {
	var log []string
	a := &fakeJob{name: "a", log: &log}
	b := &fakeJob{name: "b", log: &log}
	jm := NewJobManager(a, b)

	require.NoError(t, jm.StartAll())
	jm.StopAll()

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestJobManager_StartFailureStopsStartedJobs(t *testing.T) {
	var log []string
	a := &fakeJob{name: "a", log: &log}
	b := &fakeJob{name: "b", log: &log, startErr: errors.New("bad schedule")}
	jm := NewJobManager(a, b)

	err := jm.StartAll()

	require.Error(t, err)
	assert.True(t, a.stopped)
	assert.False(t, b.started)
	assert.False(t, b.stopped)
}
