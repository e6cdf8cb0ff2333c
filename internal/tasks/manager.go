package tasks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"go.uber.org/zap"
)

// SourceSystem 代码中注册的自动任务
const SourceSystem = "SYSTEM"

type Scheduler interface {
	AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error
}

func ApplyAutoJobs(sched Scheduler) {
	mu.RLock()
	defer mu.RUnlock()

	for _, job := range autoJobs {
		// 调用调度器添加任务
		err := sched.AddJob(job.Cron, job.Name, job.Name, job.Params, SourceSystem)
		if err != nil {
			logger.Error("❌ [AutoLoad] Failed to load", zap.String("job", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ [AutoLoad] Loaded", zap.String("job", job.Name), zap.String("cron", job.Cron))
		}
	}
}

// AutoJob 定义一个“自启动任务”的结构
type AutoJob struct {
	Name    string           // 任务唯一标识
	Cron    string           // Cron 表达式
	Creator core.TaskCreator // 构造函数
	Params  map[string]any   // 默认参数
}

var (
	registry = make(map[string]core.TaskCreator) // 普通任务注册（供 Config 调用）
	autoJobs = make([]*AutoJob, 0)               // 自动任务列表（供代码直接启动）
	mu       sync.RWMutex
)

// Register 供 Config 使用
func Register(name string, creator core.TaskCreator) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = creator
}

// RegisterAuto 注册并自动启动
func RegisterAuto(name string, cron string, creator core.TaskCreator, defaultParams map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	// 1. 先注册到普通池子（这样接口也能手动触发）
	registry[name] = creator

	// 2. 加入自动启动列表
	autoJobs = append(autoJobs, &AutoJob{
		Name:    name,
		Cron:    cron,
		Creator: creator,
		Params:  defaultParams,
	})
}

func GetTask(name string, env *core.Env) (core.Task, error) {
	mu.RLock()
	defer mu.RUnlock()
	creator, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("task implementation '%s' not found", name)
	}
	return creator(env), nil
}

// Names 已注册的任务名
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAuto 是否为代码注册的自动任务
func IsAuto(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	for _, job := range autoJobs {
		if job.Name == name {
			return true
		}
	}
	return false
}
