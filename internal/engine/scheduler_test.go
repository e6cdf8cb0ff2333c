package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/internal/tasks"
	"github.com/iceymoss/mdrdr/pkg/db/objects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTask struct {
	err  error
	seen chan map[string]any
}

func (t *echoTask) Identifier() string { return "test:echo" }

func (t *echoTask) Run(_ context.Context, params map[string]any) error {
	if t.seen != nil {
		t.seen <- params
	}
	return t.err
}

type memRecorder struct {
	mu   sync.Mutex
	runs []objects.SysTaskRun
}

func (r *memRecorder) CreateRun(_ context.Context, run *objects.SysTaskRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ID = uint(len(r.runs) + 1)
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memRecorder) FinishRun(_ context.Context, run *objects.SysTaskRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID-1] = *run
	return nil
}

var (
	okTask   = &echoTask{}
	failTask = &echoTask{err: errors.New("boom")}
)

func init() {
	tasks.Register("test:ok", func(*core.Env) core.Task { return okTask })
	tasks.Register("test:fail", func(*core.Env) core.Task { return failTask })
}

func TestAddJob(t *testing.T) {
	s := NewScheduler(&core.Env{})

	require.NoError(t, s.AddJob("0 0 4 * * *", "test:ok", "nightly", nil, SourceYAML))
	stat, ok := s.Stats.Get("nightly")
	require.True(t, ok)
	assert.Equal(t, StatusIdle, stat.Status)
	assert.Equal(t, "Pending", stat.LastResult)
	assert.Equal(t, SourceYAML, stat.Source)
	assert.Equal(t, "test:ok", stat.Task)

	t.Run("duplicate name", func(t *testing.T) {
		assert.Error(t, s.AddJob("0 0 5 * * *", "test:ok", "nightly", nil, SourceYAML))
	})
	t.Run("unknown task", func(t *testing.T) {
		assert.Error(t, s.AddJob("0 0 5 * * *", "test:missing", "other", nil, SourceYAML))
	})
	t.Run("bad cron", func(t *testing.T) {
		assert.Error(t, s.AddJob("not a cron", "test:ok", "broken", nil, SourceYAML))
		_, ok := s.Stats.Get("broken")
		assert.False(t, ok)
	})
}

func TestManualRun(t *testing.T) {
	rec := &memRecorder{}
	s := NewScheduler(&core.Env{}, WithRecorder(rec), WithTimeout(time.Second))
	seen := make(chan map[string]any, 1)
	okTask.seen = seen
	defer func() { okTask.seen = nil }()

	require.NoError(t, s.AddJob("0 0 4 * * *", "test:ok", "nightly", map[string]any{"limit": 3}, SourceSystem))
	assert.Error(t, s.ManualRun("missing"))
	require.NoError(t, s.ManualRun("nightly"))

	select {
	case params := <-seen:
		assert.Equal(t, 3, params["limit"])
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	s.Stop()

	stat, _ := s.Stats.Get("nightly")
	assert.Equal(t, int64(1), stat.RunCount)
	assert.Equal(t, "Success", stat.LastResult)
	assert.NotEmpty(t, stat.NextRunTime)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, objects.TaskRunSuccess, rec.runs[0].Status)
	assert.Equal(t, "test:echo", rec.runs[0].HandlerName)
	assert.NotNil(t, rec.runs[0].EndTime)
}

func TestRunOnceRecordsFailure(t *testing.T) {
	rec := &memRecorder{}
	s := NewScheduler(&core.Env{}, WithRecorder(rec))

	err := s.RunOnce("test:fail", nil)
	require.Error(t, err)

	stat, ok := s.Stats.Get("test:fail")
	require.True(t, ok)
	assert.Equal(t, StatusError, stat.Status)
	assert.Equal(t, SourceAPI, stat.Source)
	assert.Contains(t, stat.LastResult, "boom")

	require.Len(t, rec.runs, 1)
	assert.Equal(t, objects.TaskRunFailed, rec.runs[0].Status)
	assert.Equal(t, "boom", rec.runs[0].ErrorMsg)

	assert.Error(t, s.RunOnce("test:missing", nil))
}

func TestStatsGetAllSorted(t *testing.T) {
	m := NewStatManager()
	m.Set("b", &JobStats{Name: "b"})
	m.Set("a", &JobStats{Name: "a"})
	m.Update("a", func(s *JobStats) { s.RunCount = 2 })
	m.Update("missing", func(s *JobStats) { s.RunCount = 9 })

	all := m.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, int64(2), all[0].RunCount)

	// 返回副本
	all[0].RunCount = 100
	got, _ := m.Get("a")
	assert.Equal(t, int64(2), got.RunCount)
}
