package motion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// linePlan builds a hand-rolled plan of n unit-ish steps along X so tests can
// tell submissions apart by their delta values.
func linePlan(n int, x float64, delay time.Duration) Plan {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Delta: geom.Vector2{X: x}}
		if i < n-1 {
			steps[i].Delay = delay
		}
	}
	return Plan{
		Target:   geom.Vector2{X: x * float64(n)},
		Distance: x * float64(n),
		Steps:    steps,
	}
}

// startExecutor wires an executor to the mock and returns a stop function
// that cancels the worker and waits for it to exit, so goleak stays clean.
func startExecutor(t *testing.T, mock *mockActuator) (*Executor, func()) {
	t.Helper()
	e, err := NewExecutor(DefaultExecutorConfig(), mock.Move, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	return e, func() {
		cancel()
		e.Wait()
	}
}

func waitIdle(t *testing.T, e *Executor, completed uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := e.Stats()
		return !e.Busy() && s.Completed+s.Superseded+s.Interrupted >= completed
	}, time.Second, time.Millisecond)
}

func TestExecutorRunsPlanToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	e, stop := startExecutor(t, mock)
	defer stop()

	require.True(t, e.Submit(linePlan(4, 1, 0), false))
	waitIdle(t, e, 1)

	assert.Len(t, mock.recorded(), 4)
	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Completed)

	snap, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.False(t, snap.Preempted)
}

func TestExecutorNewestSubmissionWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	mock.blockOnCall = 1
	e, stop := startExecutor(t, mock)
	defer stop()

	// The first plan blocks inside its first actuation; submitting a second
	// plan while it is stuck must mark it for supersession.
	require.True(t, e.Submit(linePlan(5, 1, 0), false))
	<-mock.entered
	require.True(t, e.Submit(linePlan(3, 2, 0), false))
	close(mock.release)

	waitIdle(t, e, 2)

	moves := mock.recorded()
	require.Len(t, moves, 4, "one step of the old plan, then the whole new plan")
	assert.Equal(t, 1.0, moves[0].X)
	for _, mv := range moves[1:] {
		assert.Equal(t, 2.0, mv.X)
	}

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Superseded)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestExecutorLockedTaskResistsSupersession(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	mock.blockOnCall = 1
	e, stop := startExecutor(t, mock)
	defer stop()

	require.True(t, e.Submit(linePlan(3, 1, 0), true))
	<-mock.entered

	// Both land in the single pending slot; the second overwrites the first.
	assert.False(t, e.Submit(linePlan(2, 2, 0), false))
	assert.False(t, e.Submit(linePlan(2, 3, 0), false))
	close(mock.release)

	waitIdle(t, e, 2)

	moves := mock.recorded()
	require.Len(t, moves, 5, "locked plan runs in full, then only the latest pending plan")
	for _, mv := range moves[:3] {
		assert.Equal(t, 1.0, mv.X)
	}
	for _, mv := range moves[3:] {
		assert.Equal(t, 3.0, mv.X)
	}

	stats := e.Stats()
	assert.Equal(t, uint64(2), stats.Completed)
	assert.Zero(t, stats.Superseded)
}

func TestExecutorInterruptPredicatePreempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	e, stop := startExecutor(t, mock)
	defer stop()

	var flag atomicFlag
	flag.Set(true)
	e.SetInterrupt(flag.Get)

	require.True(t, e.Submit(linePlan(4, 1, 0), false))
	waitIdle(t, e, 1)

	// The predicate fired before the first step, so nothing was dispatched
	// and the task still counts as a success.
	assert.Zero(t, mock.calls())
	snap, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.True(t, snap.Preempted)
	assert.Equal(t, uint64(1), e.Stats().Completed)
}

func TestExecutorInterruptDuringDelay(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	e, stop := startExecutor(t, mock)
	defer stop()

	var flag atomicFlag
	e.SetInterrupt(flag.Get)

	// A very long inter-step delay: the poll loop must notice the predicate
	// long before the delay elapses.
	start := time.Now()
	require.True(t, e.Submit(linePlan(2, 1, 10*time.Second), false))
	require.Eventually(t, func() bool { return mock.calls() == 1 }, time.Second, time.Millisecond)
	flag.Set(true)

	waitIdle(t, e, 1)
	assert.Less(t, time.Since(start), time.Second, "pre-emption must not wait out the delay")

	snap, _ := e.Current()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.True(t, snap.Preempted)
	assert.Equal(t, 1, mock.calls(), "second step skipped")
}

func TestExecutorActuationFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	mock.failOnCall = 2
	e, stop := startExecutor(t, mock)
	defer stop()

	require.True(t, e.Submit(linePlan(3, 1, 0), false))
	waitIdle(t, e, 1)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Interrupted)
	assert.Equal(t, uint64(1), stats.Failures)
	assert.Len(t, mock.recorded(), 1, "no steps after the failed dispatch")

	snap, _ := e.Current()
	assert.Equal(t, StatusInterrupted, snap.Status)
}

func TestExecutorSurvivesActuatorPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	mock.panicOnCall = 1
	e, stop := startExecutor(t, mock)
	defer stop()

	// Even a locked task must not wedge the worker when the actuator
	// panics under it.
	require.True(t, e.Submit(linePlan(2, 1, 0), true))
	waitIdle(t, e, 1)

	snap, _ := e.Current()
	assert.Equal(t, StatusInterrupted, snap.Status)
	assert.False(t, snap.Locked)

	// The worker keeps draining submissions afterwards.
	require.True(t, e.Submit(linePlan(2, 2, 0), false))
	waitIdle(t, e, 2)
	assert.Equal(t, uint64(1), e.Stats().Completed)
}

func TestExecutorForceUnlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	mock.blockOnCall = 1
	e, stop := startExecutor(t, mock)
	defer stop()

	require.True(t, e.Submit(linePlan(2, 1, 0), true))
	<-mock.entered
	assert.False(t, e.Submit(linePlan(2, 2, 0), false))

	e.ForceUnlock()
	close(mock.release)

	waitIdle(t, e, 2)

	// The pending plan was promoted and ran after the unlocked task ended.
	moves := mock.recorded()
	require.Len(t, moves, 4)
	assert.Equal(t, 2.0, moves[3].X)
}

func TestExecutorSkipsTinySteps(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := newMockActuator()
	e, stop := startExecutor(t, mock)
	defer stop()

	plan := Plan{Steps: []Step{
		{Delta: geom.Vector2{X: 1}},
		{Delta: geom.Vector2{X: 0.01}},
		{Delta: geom.Vector2{X: 1}},
	}}
	require.True(t, e.Submit(plan, false))
	waitIdle(t, e, 1)

	assert.Equal(t, 2, mock.calls(), "sub-threshold step must not reach the actuator")
}

func TestExecutorConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultExecutorConfig().Validate())

	bad := DefaultExecutorConfig()
	bad.PollInterval = 0
	assert.Error(t, bad.Validate())

	bad = DefaultExecutorConfig()
	bad.PollInterval = 50 * time.Millisecond
	assert.Error(t, bad.Validate())

	bad = DefaultExecutorConfig()
	bad.TinyStepFloor = -1
	assert.Error(t, bad.Validate())
}
