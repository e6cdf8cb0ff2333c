package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iceymoss/mdrdr/internal/engine"
	"github.com/iceymoss/mdrdr/internal/server"
	"github.com/iceymoss/mdrdr/internal/tasks"
	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the task scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.openStorage(ctx); err != nil {
				return err
			}

			deps := server.Deps{
				Articles:  a.articles,
				Ingester:  a.ingest,
				Extractor: a.extractor,
			}
			if a.taskRuns != nil {
				deps.Runs = a.taskRuns
			}
			if a.redis != nil {
				deps.Cache = server.NewRedisArticleCache(a.redis, a.cfg.Redis.CacheTTL)
			}

			var scheduler *engine.Scheduler
			if !noScheduler {
				scheduler = newScheduler(a)
				deps.Tasks = scheduler
				scheduler.Start()
				defer scheduler.Stop()
			}

			srv := server.NewServer(a.cfg.Server.Mode, deps)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run(a.cfg.Server.Port) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("👋 [Server] Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the API without running scheduled jobs")
	return cmd
}

func newScheduler(a *app) *engine.Scheduler {
	var opts []engine.Option
	if a.taskRuns != nil {
		opts = append(opts, engine.WithRecorder(a.taskRuns))
	}
	scheduler := engine.NewScheduler(a.env(), opts...)

	tasks.ApplyAutoJobs(scheduler)

	// 注册所有配置型任务
	for _, job := range a.cfg.Jobs {
		if !job.Enable {
			continue
		}
		err := scheduler.AddJob(job.Cron, job.Name, job.Name, job.Params, engine.SourceYAML)
		if err != nil {
			logger.Warn("⚠️ Failed to schedule", zap.String("job", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ Job scheduled", zap.String("job", job.Name), zap.String("cron", job.Cron))
		}
	}
	return scheduler
}
