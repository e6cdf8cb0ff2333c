package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/internal/tasks"
	"github.com/iceymoss/mdrdr/internal/tasks/params"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"go.uber.org/zap"
)

const Name = "articles:refresh"

// RefreshTask 重新抓取长时间未更新的文章，内容没变时入库流程直接命中缓存
type RefreshTask struct {
	env *core.Env
	now func() time.Time
}

func init() {
	// 每天凌晨 4 点
	tasks.RegisterAuto(Name, "0 0 4 * * *", NewRefreshTask, map[string]any{
		"older_than_hours": 168,
		"limit":            50,
	})
}

func NewRefreshTask(env *core.Env) core.Task {
	return &RefreshTask{env: env, now: time.Now}
}

func (t *RefreshTask) Identifier() string {
	return Name
}

func (t *RefreshTask) Run(ctx context.Context, p map[string]any) error {
	if t.env == nil || t.env.Articles == nil || t.env.Ingester == nil {
		return fmt.Errorf("refresh: environment not configured")
	}
	hours := params.Int(p, "older_than_hours", 168)
	limit := params.Int(p, "limit", 50)

	before := t.now().Add(-time.Duration(hours) * time.Hour)
	stale, err := t.env.Articles.ListStale(ctx, before, limit)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		logger.Info("⏭️ [Refresh] Nothing to refresh")
		return nil
	}

	counts := map[string]int{}
	for _, a := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := a.URL
		if a.OriginalURL != "" {
			target = a.OriginalURL
		}
		out, err := t.env.Ingester.Ingest(ctx, target)
		if err != nil {
			logger.Warn("❌ [Refresh] Failed", zap.Uint64("id", a.ID), zap.String("url", target), zap.Error(err))
			counts["failed"]++
			continue
		}
		counts[string(out.Decision)]++
	}

	logger.Info("🎉 [Refresh] Task finished", zap.Int("total", len(stale)), zap.Any("counts", counts))
	return nil
}
