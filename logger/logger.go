// Package logger 全局 zap 日志。组件通过构造参数接收 *zap.SugaredLogger，nil 时使用 Nop。
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger 全局实例，Initialize 之前是 no-op
	Logger *zap.SugaredLogger
	// JSONOutput 是否输出 JSON
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize 按输出格式与详细程度 (-v 次数) 构造全局日志
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level := levelFor(verbosity)

	var zapLogger *zap.Logger
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		built, err := config.Build()
		if err != nil {
			return err
		}
		zapLogger = built
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.TimeKey = ""
		encoderConfig.CallerKey = ""
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	Logger = zapLogger.Sugar()
	return nil
}

// levelFor 0: warn, 1: info, >=2: debug
func levelFor(verbosity int) zapcore.Level {
	switch {
	case verbosity >= 2:
		return zapcore.DebugLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// OrNop 组件构造函数使用: nil 时返回 no-op 日志
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// Named 基于全局日志派生组件日志
func Named(component string) *zap.SugaredLogger {
	return Logger.With(FieldComponent, component)
}

// Sync 刷新缓冲
func Sync() {
	_ = Logger.Sync()
}
