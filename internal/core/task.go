package core

import (
	"context"
	"time"

	"github.com/iceymoss/mdrdr/internal/ingest"
	"github.com/iceymoss/mdrdr/pkg/db/objects"
)

// Ingester 任务通过它把链接送入入库流程
type Ingester interface {
	Ingest(ctx context.Context, rawURL string) (*ingest.Outcome, error)
}

// StaleArticles 查询需要重新抓取的文章
type StaleArticles interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]*objects.Article, error)
}

// Env 任务构造时注入的依赖
type Env struct {
	Ingester Ingester
	Articles StaleArticles
}

// TaskCreator 定义任务构造函数签名
type TaskCreator func(env *Env) Task

// Task 任务接口
type Task interface {
	// Run 执行任务逻辑
	// params 是从配置文件传入的动态参数
	Run(ctx context.Context, params map[string]any) error

	// Identifier 返回任务唯一标识 (用于日志)
	Identifier() string
}
