package main

import (
	"context"
	"errors"

	"VectorOps/pkg/zlog"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume async ingest requests from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	worker, err := app.NewIngestWorker()
	if err != nil {
		return err
	}
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	zlog.Info("ingest worker stopped")
	return nil
}
