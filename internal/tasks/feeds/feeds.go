package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/iceymoss/mdrdr/internal/core"
	"github.com/iceymoss/mdrdr/internal/tasks"
	"github.com/iceymoss/mdrdr/internal/tasks/params"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const Name = "feeds:ingest"

// IngestTask 订阅 RSS / Atom 源，把新条目送入入库流程
type IngestTask struct {
	ingester core.Ingester
	parser   *gofeed.Parser
	now      func() time.Time
}

func init() {
	tasks.Register(Name, NewIngestTask)
}

func NewIngestTask(env *core.Env) core.Task {
	return &IngestTask{
		ingester: env.Ingester,
		parser:   gofeed.NewParser(),
		now:      time.Now,
	}
}

func (t *IngestTask) Identifier() string {
	return Name
}

// Params 任务参数
type Params struct {
	Sources     []string
	MaxAgeHours int // 0 表示不限制
	MaxItems    int // 每个源最多处理的条目数
}

func parseParams(p map[string]any) Params {
	return Params{
		Sources:     params.Strings(p, "sources"),
		MaxAgeHours: params.Int(p, "max_age_hours", 24),
		MaxItems:    params.Int(p, "max_items", 20),
	}
}

func (t *IngestTask) Run(ctx context.Context, raw map[string]any) error {
	if t.ingester == nil {
		return fmt.Errorf("feeds: ingester not configured")
	}
	p := parseParams(raw)
	if len(p.Sources) == 0 {
		return fmt.Errorf("feeds: no sources")
	}

	var ingested, failed int
	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("🕷️ [Feeds] Fetching", zap.String("source", src))
		feed, err := t.parser.ParseURLWithContext(src, ctx)
		if err != nil {
			logger.Warn("⚠️ [Feeds] Failed to parse", zap.String("source", src), zap.Error(err))
			failed++
			continue
		}

		for i, item := range feed.Items {
			if p.MaxItems > 0 && i >= p.MaxItems {
				break
			}
			if item.Link == "" || t.tooOld(item, p.MaxAgeHours) {
				continue
			}
			out, err := t.ingester.Ingest(ctx, item.Link)
			if err != nil {
				logger.Warn("❌ [Feeds] Ingest failed", zap.String("link", item.Link), zap.Error(err))
				failed++
				continue
			}
			logger.Debug("✅ [Feeds] Ingested", zap.String("link", item.Link), zap.String("status", string(out.Decision)))
			ingested++
		}
	}

	logger.Info("🎉 [Feeds] Task finished", zap.Int("ingested", ingested), zap.Int("failed", failed))
	if ingested == 0 && failed > 0 {
		return fmt.Errorf("feeds: all %d attempts failed", failed)
	}
	return nil
}

func (t *IngestTask) tooOld(item *gofeed.Item, maxAgeHours int) bool {
	if maxAgeHours <= 0 {
		return false
	}
	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published == nil {
		return false
	}
	return t.now().Sub(*published) > time.Duration(maxAgeHours)*time.Hour
}
