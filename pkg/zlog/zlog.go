package zlog

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志初始化参数
type Options struct {
	Level      string // debug | info | warn | error
	LogPath    string // 为空时只输出到控制台
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(newLogger(Options{Level: "info"}))
}

// Init 根据配置重建全局 logger，可重复调用
func Init(opts Options) {
	old := logger.Swap(newLogger(opts))
	if old != nil {
		_ = old.Sync()
	}
}

func newLogger(opts Options) *zap.Logger {
	level := parseLevel(opts.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}

	if path := strings.TrimSpace(opts.LogPath); path != "" {
		rotate := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 7),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotate), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// L 返回当前 logger，给需要 *zap.Logger 的组件使用；
// 全局 logger 为包装函数多跳了一层，这里抵消掉
func L() *zap.Logger {
	return logger.Load().WithOptions(zap.AddCallerSkip(-1))
}

func Debug(msg string, fields ...zap.Field) {
	logger.Load().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Load().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Load().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Load().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Load().Fatal(msg, fields...)
}

// Sync 刷新缓冲区，进程退出前调用
func Sync() {
	_ = logger.Load().Sync()
}
