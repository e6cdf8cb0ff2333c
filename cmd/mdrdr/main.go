package main

import (
	"os"

	"github.com/iceymoss/mdrdr/pkg/logger"

	// import anonymously to register tasks to the list
	_ "github.com/iceymoss/mdrdr/internal/tasks/feeds"
	_ "github.com/iceymoss/mdrdr/internal/tasks/refresh"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	// .env 可选，生产环境直接使用环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("⚠️ .env error", zap.Error(err))
	}
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mdrdr",
		Short:         "Article and media ingest service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(),
		newExtractCmd(),
		newMediaCmd(),
		newIngestCmd(),
		newRunCmd(),
	)
	return root
}
