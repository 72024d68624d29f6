package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpServer "VectorOps/api/http"
	"VectorOps/pkg/zlog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	conf := app.Conf

	srv := &http.Server{
		Addr:              conf.Addr(),
		Handler:           httpServer.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		zlog.Info("服务器正在启动", zap.String("addr", srv.Addr), zap.Bool("tls", conf.MainConfig.EnableTLS))
		var err error
		if conf.MainConfig.EnableTLS {
			err = srv.ListenAndServeTLS(conf.MainConfig.CertFile, conf.MainConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	// 等待退出信号
	select {
	case <-ctx.Done():
	case err, ok := <-errChan:
		if ok {
			zlog.Error("服务器启动失败", zap.Error(err))
			_ = app.Shutdown(context.Background())
			return err
		}
	}

	zlog.Info("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.MainConfig.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	if err := app.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("release resources", zap.Error(err))
	}
	zlog.Info("服务器已关闭")
	zlog.Sync()
	return nil
}
