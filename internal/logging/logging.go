// Package logging builds zap loggers from the validated logging_cfg
// block: one level-gated core per emitter, teed together.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asteroid-belt/relcore/pkg/config"
)

// New constructs a logger from cfg. A nil cfg yields a no-op logger.
// The returned cleanup closes any opened log files; call it once the
// logger is no longer used.
func New(cfg *config.LoggingConfig) (*zap.Logger, func(), error) {
	if cfg == nil {
		return zap.NewNop(), func() {}, nil
	}

	sinks := make(map[string]zapcore.WriteSyncer, len(cfg.Outputs))
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	for name, out := range cfg.Outputs {
		sink, closer, err := openSink(out)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("logging: output %q: %w", name, err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		sinks[name] = sink
	}

	var cores []zapcore.Core
	for name, em := range cfg.Emitters {
		if em.Level == config.LevelDisabled {
			continue
		}
		sink, ok := sinks[em.OutputName]
		if !ok {
			// The config loader guarantees this; guard anyway.
			cleanup()
			return nil, nil, fmt.Errorf("logging: emitter %q references unknown output %q", name, em.OutputName)
		}
		enc := encoderFor(cfg.Outputs[em.OutputName])
		cores = append(cores, zapcore.NewCore(enc, sink, zapLevel(em.Level)))
	}

	if len(cores) == 0 {
		cleanup()
		return zap.NewNop(), func() {}, nil
	}
	return zap.New(zapcore.NewTee(cores...)), cleanup, nil
}

func openSink(out config.OutputConfig) (zapcore.WriteSyncer, func(), error) {
	switch out.Type {
	case config.OutputStderr:
		return zapcore.Lock(os.Stderr), nil, nil
	case config.OutputStdout:
		return zapcore.Lock(os.Stdout), nil, nil
	case config.OutputFile:
		if err := os.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(out.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return zapcore.Lock(f), func() { _ = f.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown output type %q", out.Type)
}

func encoderFor(out config.OutputConfig) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if out.EffectiveFormat() == config.FormatConsole {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(devCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// zapLevel maps a config level to zap's scale. NOTICE collapses into
// Info; zap has no notice level.
func zapLevel(level string) zapcore.Level {
	switch level {
	case config.LevelCritical:
		return zapcore.FatalLevel
	case config.LevelError:
		return zapcore.ErrorLevel
	case config.LevelWarning:
		return zapcore.WarnLevel
	case config.LevelNotice, config.LevelInfo:
		return zapcore.InfoLevel
	case config.LevelDebug:
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
