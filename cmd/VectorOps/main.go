package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"VectorOps/internal/config"
	"VectorOps/internal/initial"
	"VectorOps/pkg/zlog"

	"github.com/spf13/cobra"
)

const rootLongDesc string = `VectorOps stores text in named vector collections and answers questions over them.

Examples:
  VectorOps serve --config configs/config_local.toml
  VectorOps ingest --collection 2023 --file report_2023.txt
  VectorOps search --collection 2023 --query "inflation outlook" -k 3
  VectorOps worker`

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "VectorOps",
		Short:         "Vector collection service",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to toml config file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWorkerCmd())
	return cmd
}

// loadConfig 配置文件缺失时退回默认配置
func loadConfig() (*config.Config, error) {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			zlog.Warn(fmt.Sprintf("config %s not found, using defaults", configPath))
			conf = config.Default()
		} else {
			return nil, err
		}
	}
	zlog.Init(zlog.Options{
		Level:      conf.LogConfig.Level,
		LogPath:    conf.LogConfig.LogPath,
		MaxSizeMB:  conf.LogConfig.MaxSizeMB,
		MaxBackups: conf.LogConfig.MaxBackups,
		MaxAgeDays: conf.LogConfig.MaxAgeDays,
	})
	return conf, nil
}

func loadApp(ctx context.Context) (*initial.App, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return initial.NewApp(ctx, conf)
}
