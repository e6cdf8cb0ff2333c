package repo

import (
	"context"

	"github.com/iceymoss/mdrdr/pkg/db/objects"

	"gorm.io/gorm"
)

// TaskRunRepo 任务执行记录
type TaskRunRepo struct {
	db *gorm.DB
}

func NewTaskRunRepo(db *gorm.DB) *TaskRunRepo { return &TaskRunRepo{db: db} }

func (r *TaskRunRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&objects.SysTaskRun{})
}

// CreateRun 开始记录
func (r *TaskRunRepo) CreateRun(ctx context.Context, run *objects.SysTaskRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FinishRun 任务结束更新记录
func (r *TaskRunRepo) FinishRun(ctx context.Context, run *objects.SysTaskRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// Recent 最近的执行记录，jobName 为空时不过滤
func (r *TaskRunRepo) Recent(ctx context.Context, jobName string, limit int) ([]*objects.SysTaskRun, error) {
	var list []*objects.SysTaskRun
	tx := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if jobName != "" {
		tx = tx.Where("job_name = ?", jobName)
	}
	err := tx.Find(&list).Error
	return list, err
}
