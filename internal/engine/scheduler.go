package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/internal/tasks"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// RunRecorder 持久化每次执行记录，可为空
type RunRecorder interface {
	CreateRun(ctx context.Context, run *objects.SysTaskRun) error
	FinishRun(ctx context.Context, run *objects.SysTaskRun) error
}

type job struct {
	task   core.Task
	params map[string]any
	entry  cron.EntryID
}

type Scheduler struct {
	cron     *cron.Cron
	Stats    *StatManager
	env      *core.Env
	recorder RunRecorder
	timeout  time.Duration

	mu         sync.RWMutex
	registered map[string]job
	wg         sync.WaitGroup
}

type Option func(s *Scheduler)

// WithRecorder 记录执行历史
func WithRecorder(r RunRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithTimeout 单次执行超时
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func NewScheduler(env *core.Env, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		Stats:      NewStatManager(),
		env:        env,
		timeout:    30 * time.Minute,
		registered: make(map[string]job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob 添加任务
func (s *Scheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registered[uniqueJobName]; exists {
		return fmt.Errorf("job '%s' already scheduled", uniqueJobName)
	}

	// 1. 获取任务实现
	taskInstance, err := tasks.GetTask(taskName, s.env)
	if err != nil {
		return err
	}

	// 2. 加入 Cron
	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.runTaskWithStats(uniqueJobName, taskInstance, params)
	})
	if err != nil {
		return fmt.Errorf("invalid cron '%s': %w", cronExpr, err)
	}

	// 3. 初始化状态，保存引用以便手动触发
	stat := &JobStats{
		Name:       uniqueJobName,
		Task:       taskName,
		CronExpr:   cronExpr,
		Status:     StatusIdle,
		LastResult: "Pending",
		Source:     source,
	}
	stat.rawNext = nextOf(s.cron.Entry(entryID))
	if !stat.rawNext.IsZero() {
		stat.NextRunTime = stat.rawNext.Format(timeLayout)
	}
	s.Stats.Set(uniqueJobName, stat)
	s.registered[uniqueJobName] = job{task: taskInstance, params: params, entry: entryID}
	return nil
}

// runTaskWithStats 执行并记录状态
func (s *Scheduler) runTaskWithStats(name string, task core.Task, params map[string]any) error {
	start := time.Now()
	s.Stats.Update(name, func(stat *JobStats) {
		stat.Status = StatusRunning
		stat.LastRunTime = start.Format(timeLayout)
		stat.RunCount++
	})

	log := logger.With(zap.String("job", name))
	log.Info("🚀 [Schedule] Starting job", zap.String("task", task.Identifier()))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	run := s.beginRun(ctx, name, task, start)
	err := task.Run(ctx, params)
	s.finishRun(ctx, run, err)

	// 更新结束状态
	next := s.nextRun(name)
	s.Stats.Update(name, func(stat *JobStats) {
		if err != nil {
			stat.LastResult = fmt.Sprintf("Error: %v", err)
			stat.Status = StatusError
		} else {
			stat.LastResult = "Success"
			stat.Status = StatusIdle
		}
		if !next.IsZero() {
			stat.rawNext = next
			stat.NextRunTime = next.Format(timeLayout)
		}
	})

	if err != nil {
		log.Error("❌ [Schedule] Job failed", zap.Duration("cost", time.Since(start)), zap.Error(err))
	} else {
		log.Info("✅ [Schedule] Job finished", zap.Duration("cost", time.Since(start)))
	}
	return err
}

func (s *Scheduler) nextRun(name string) time.Time {
	s.mu.RLock()
	j, ok := s.registered[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}
	}
	return nextOf(s.cron.Entry(j.entry))
}

// nextOf 调度器未启动时 Entry.Next 为零值，按表达式推算
func nextOf(e cron.Entry) time.Time {
	if !e.Next.IsZero() {
		return e.Next
	}
	if e.Schedule == nil {
		return time.Time{}
	}
	return e.Schedule.Next(time.Now())
}

func (s *Scheduler) beginRun(ctx context.Context, name string, task core.Task, start time.Time) *objects.SysTaskRun {
	if s.recorder == nil {
		return nil
	}
	run := &objects.SysTaskRun{
		JobName:     name,
		HandlerName: task.Identifier(),
		Status:      objects.TaskRunRunning,
		StartTime:   start,
	}
	if err := s.recorder.CreateRun(ctx, run); err != nil {
		logger.Warn("⚠️ [Schedule] Record run failed", zap.String("job", name), zap.Error(err))
		return nil
	}
	return run
}

func (s *Scheduler) finishRun(ctx context.Context, run *objects.SysTaskRun, err error) {
	if run == nil {
		return
	}
	end := time.Now()
	run.EndTime = &end
	run.DurationMs = end.Sub(run.StartTime).Milliseconds()
	run.Status = objects.TaskRunSuccess
	if err != nil {
		run.Status = objects.TaskRunFailed
		run.ErrorMsg = err.Error()
	}
	// 任务超时后 ctx 已取消，这里换一个新的
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if e := s.recorder.FinishRun(ctx, run); e != nil {
		logger.Warn("⚠️ [Schedule] Record finish failed", zap.String("job", run.JobName), zap.Error(e))
	}
}

// ManualRun 手动触发已调度的任务，异步执行
func (s *Scheduler) ManualRun(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found")
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	}()
	return nil
}

// RunOnce 同步执行一个已注册但未调度的任务，状态以 API 来源记录
func (s *Scheduler) RunOnce(taskName string, params map[string]any) error {
	task, err := tasks.GetTask(taskName, s.env)
	if err != nil {
		return err
	}
	if _, ok := s.Stats.Get(taskName); !ok {
		s.Stats.Set(taskName, &JobStats{
			Name:       taskName,
			Task:       taskName,
			Status:     StatusIdle,
			LastResult: "Pending",
			Source:     SourceAPI,
		})
	}
	return s.runTaskWithStats(taskName, task, params)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Jobs 当前所有任务状态
func (s *Scheduler) Jobs() []JobStats {
	return s.Stats.GetAll()
}
