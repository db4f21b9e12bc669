// Package logging builds the process logger.
package logging

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/config"
)

// New builds the process logger.
//
// Logs always go to stderr in a human readable format. When a log file is
// configured they additionally go there as JSON, rotated by size and age.
func New(conf config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		return nil, argerr.New(argerr.ErrConfiguration, err, "invalid log level %q", conf.Level)
	}

	cores := []zapcore.Core{consoleCore(level)}

	if conf.File != "" {
		if dir := filepath.Dir(conf.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, argerr.New(argerr.ErrConfiguration, err, "failed to create log directory")
			}
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   true,
		})
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func consoleCore(level zapcore.Level) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
}
