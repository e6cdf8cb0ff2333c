package objects

import "time"

const (
	TaskRunRunning = 0
	TaskRunSuccess = 1
	TaskRunFailed  = 2
)

// SysTaskRun 对应 sys_task_runs 表，记录每次定时/手动任务执行
type SysTaskRun struct {
	ID          uint   `gorm:"primarykey"`
	JobName     string `gorm:"index;size:128"`
	HandlerName string `gorm:"size:128"`
	Status      int    // 0 Running, 1 Success, 2 Failed
	ErrorMsg    string `gorm:"type:text"`
	DurationMs  int64
	StartTime   time.Time
	EndTime     *time.Time
}

func (s SysTaskRun) TableName() string {
	return "sys_task_runs"
}
