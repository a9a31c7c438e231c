package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// fakeTask describes how a fake task behaves
type fakeTask struct {
	code  int
	delay time.Duration
	err   error
}

// recorder is a RunFunc backed by fakeTask definitions. Tasks that are still
// sleeping when ctx is cancelled return a nil code, like a killed process.
type recorder struct {
	tasks map[string]fakeTask

	mu       sync.Mutex
	started  []string
	finished []string
	aborted  []string

	running    atomic.Int32
	maxRunning atomic.Int32
}

func newRecorder(tasks map[string]fakeTask) *recorder {
	return &recorder{tasks: tasks}
}

func (r *recorder) run(ctx context.Context, _ int, task string) (model.ScriptResult, error) {
	r.mu.Lock()
	r.started = append(r.started, task)
	r.mu.Unlock()

	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		m := r.maxRunning.Load()
		if n <= m || r.maxRunning.CompareAndSwap(m, n) {
			break
		}
	}

	def := r.tasks[task]
	result := model.ScriptResult{Name: task, StartTime: time.Now()}
	select {
	case <-time.After(def.delay):
	case <-ctx.Done():
		r.mu.Lock()
		r.aborted = append(r.aborted, task)
		r.mu.Unlock()
		return result, nil
	}

	r.mu.Lock()
	r.finished = append(r.finished, task)
	r.mu.Unlock()
	if def.err != nil {
		return result, def.err
	}
	result.Code = model.IntPtr(def.code)
	return result, nil
}

func (r *recorder) startedTasks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

func codes(results []model.ScriptResult) []*int {
	out := make([]*int, len(results))
	for i, r := range results {
		out[i] = r.Code
	}
	return out
}

func TestSequential_AllSucceed(t *testing.T) {
	rec := newRecorder(map[string]fakeTask{"a": {}, "b": {}, "c": {}})

	results, err := Run(context.Background(), Sequential{}, []string{"a", "b", "c"}, rec.run, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rec.startedTasks())
	for _, r := range results {
		assert.True(t, r.Succeeded(), r.Name)
	}
}

func TestSequential_StopsOnFailure(t *testing.T) {
	rec := newRecorder(map[string]fakeTask{"t1": {}, "t2": {code: 1}, "t3": {}})

	results, err := Run(context.Background(), Sequential{}, []string{"t1", "t2", "t3"}, rec.run, Options{})

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "t2", se.Cause.Name)
	assert.Equal(t, []string{"t1", "t2"}, rec.startedTasks(), "t3 must never start")
	assert.Equal(t, []*int{model.IntPtr(0), model.IntPtr(1), nil}, codes(se.Results))
	assert.Equal(t, results, se.Results)
}

func TestSequential_ContinueOnError(t *testing.T) {
	rec := newRecorder(map[string]fakeTask{"t1": {}, "t2": {code: 1}, "t3": {code: 2}})

	_, err := Run(context.Background(), Sequential{}, []string{"t1", "t2", "t3"}, rec.run, Options{ContinueOnError: true})

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "t2", se.Cause.Name, "the first failure is reported")
	assert.Equal(t, []*int{model.IntPtr(0), model.IntPtr(1), model.IntPtr(2)}, codes(se.Results))
}

func TestSequential_SpawnErrorIsFailure(t *testing.T) {
	boom := errors.New("exec: not found")
	rec := newRecorder(map[string]fakeTask{"a": {err: boom}, "b": {}})

	_, err := Run(context.Background(), Sequential{}, []string{"a", "b"}, rec.run, Options{})

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, rec.startedTasks())
}

func TestSequential_ParentCancel(t *testing.T) {
	rec := newRecorder(map[string]fakeTask{"long": {delay: time.Minute}, "next": {}})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	results, err := Run(ctx, Sequential{}, []string{"long", "next"}, rec.run, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"long"}, rec.startedTasks())
	assert.Nil(t, results[0].Code)
	assert.Nil(t, results[1].Code)
}

func TestParallel_AllSucceed(t *testing.T) {
	tasks := map[string]fakeTask{
		"slow":   {delay: 60 * time.Millisecond},
		"medium": {delay: 40 * time.Millisecond},
		"fast":   {delay: 20 * time.Millisecond},
	}
	rec := newRecorder(tasks)

	results, err := Run(context.Background(), Parallel{}, []string{"slow", "medium", "fast"}, rec.run, Options{})
	require.NoError(t, err)

	// completion order differs, slot order does not
	assert.Equal(t, "slow", results[0].Name)
	assert.Equal(t, "medium", results[1].Name)
	assert.Equal(t, "fast", results[2].Name)
	assert.EqualValues(t, 3, rec.maxRunning.Load(), "unlimited pool runs everything at once")
}

func TestParallel_MaxParallelOneBehavesSequentially(t *testing.T) {
	tasks := map[string]fakeTask{
		"a": {delay: 30 * time.Millisecond},
		"b": {delay: 10 * time.Millisecond},
		"c": {},
	}
	rec := newRecorder(tasks)

	results, err := Run(context.Background(), Parallel{MaxParallel: 1}, []string{"a", "b", "c"}, rec.run, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, rec.finished)
	assert.EqualValues(t, 1, rec.maxRunning.Load())
}

func TestParallel_MaxParallelBoundsPool(t *testing.T) {
	tasks := map[string]fakeTask{}
	names := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	for _, n := range names {
		tasks[n] = fakeTask{delay: 20 * time.Millisecond}
	}
	rec := newRecorder(tasks)

	_, err := Run(context.Background(), Parallel{MaxParallel: 2}, names, rec.run, Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, rec.maxRunning.Load(), int32(2))
	assert.Len(t, rec.startedTasks(), 6)
}

func TestParallel_FailureAbortsSiblings(t *testing.T) {
	tasks := map[string]fakeTask{
		"long":    {delay: time.Minute},
		"failing": {code: 2, delay: 20 * time.Millisecond},
		"later":   {},
	}
	rec := newRecorder(tasks)

	start := time.Now()
	results, err := Run(context.Background(), Parallel{MaxParallel: 2}, []string{"long", "failing", "later"}, rec.run, Options{})
	require.Less(t, time.Since(start), 10*time.Second)

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "failing", se.Cause.Name)
	assert.Equal(t, []*int{nil, model.IntPtr(2), nil}, codes(results))
	assert.NotContains(t, rec.startedTasks(), "later", "unstarted tasks are never launched after an abort")
}

func TestParallel_ContinueOnError(t *testing.T) {
	tasks := map[string]fakeTask{
		"a": {code: 1},
		"b": {delay: 30 * time.Millisecond},
		"c": {code: 3, delay: 10 * time.Millisecond},
	}
	rec := newRecorder(tasks)

	results, err := Run(context.Background(), Parallel{MaxParallel: 1}, []string{"a", "b", "c"}, rec.run, Options{ContinueOnError: true})

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a", se.Cause.Name)
	assert.Equal(t, []*int{model.IntPtr(1), model.IntPtr(0), model.IntPtr(3)}, codes(results))
}

func TestParallel_Race(t *testing.T) {
	tasks := map[string]fakeTask{
		"winner":   {delay: 10 * time.Millisecond},
		"slowpoke": {delay: time.Minute},
		"queued":   {},
	}
	rec := newRecorder(tasks)

	results, err := Run(context.Background(), Parallel{MaxParallel: 2, Race: true}, []string{"winner", "slowpoke", "queued"}, rec.run, Options{})
	require.NoError(t, err)

	assert.True(t, results[0].Succeeded())
	assert.Nil(t, results[1].Code, "the running sibling is aborted")
	assert.Nil(t, results[2].Code)
	assert.NotContains(t, rec.startedTasks(), "queued")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"slowpoke"}, rec.aborted)
}

func TestParallel_RaceIgnoresFailuresUntilWinner(t *testing.T) {
	tasks := map[string]fakeTask{
		"fails": {code: 1},
		"wins":  {delay: 20 * time.Millisecond},
	}
	rec := newRecorder(tasks)

	_, err := Run(context.Background(), Parallel{Race: true}, []string{"fails", "wins"}, rec.run, Options{ContinueOnError: true})

	var se *runerrors.ScriptError
	require.ErrorAs(t, err, &se, "a tolerated failure is still reported")
	assert.Equal(t, "fails", se.Cause.Name)
	assert.True(t, se.Results[1].Succeeded())
}

func TestParallel_ParentCancel(t *testing.T) {
	rec := newRecorder(map[string]fakeTask{"a": {delay: time.Minute}, "b": {delay: time.Minute}})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	results, err := Run(ctx, Parallel{}, []string{"a", "b"}, rec.run, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []*int{nil, nil}, codes(results))
}

func TestParallel_ResultNameDefaulted(t *testing.T) {
	run := func(context.Context, int, string) (model.ScriptResult, error) {
		return model.ScriptResult{Code: model.IntPtr(0)}, nil
	}
	results, err := Run(context.Background(), Parallel{}, []string{"x"}, run, Options{})
	require.NoError(t, err)
	assert.Equal(t, "x", results[0].Name)
}

func TestRun_Empty(t *testing.T) {
	for _, mode := range []Mode{Sequential{}, Parallel{}} {
		results, err := Run(context.Background(), mode, nil, nil, Options{})
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}
