package config

import (
	"fmt"
	"slices"
)

// LoggingVersion is the only accepted logging_cfg schema version.
const LoggingVersion = "1.0"

// Logging severity thresholds, most to least severe. DISABLED turns an
// emitter off entirely.
const (
	LevelCritical = "CRITICAL"
	LevelError    = "ERROR"
	LevelWarning  = "WARNING"
	LevelNotice   = "NOTICE"
	LevelInfo     = "INFO"
	LevelDebug    = "DEBUG"
	LevelDisabled = "DISABLED"
)

// Levels lists the accepted emitter levels.
var Levels = []string{
	LevelCritical, LevelError, LevelWarning, LevelNotice,
	LevelInfo, LevelDebug, LevelDisabled,
}

// Output kinds.
const (
	OutputFile   = "file"
	OutputStderr = "stderr"
	OutputStdout = "stdout"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// OutputConfig is one named log destination.
type OutputConfig struct {
	// Type is file, stderr or stdout.
	Type string
	// Path is the log file location; only meaningful for file outputs.
	// A leading ~ is expanded at load time.
	Path string
	// Format is json or console. Files default to json, streams to
	// console.
	Format string
}

// EmitterConfig routes messages at or above Level to a named output.
type EmitterConfig struct {
	OutputName string
	Level      string
}

// LoggingConfig is the validated logging_cfg block.
type LoggingConfig struct {
	Version  string
	Outputs  map[string]OutputConfig
	Emitters map[string]EmitterConfig
}

// DefaultLogging returns the stock logging configuration: everything at
// INFO and above to ~/relcore.log, problems to stderr.
func DefaultLogging() *LoggingConfig {
	return &LoggingConfig{
		Version: LoggingVersion,
		Outputs: map[string]OutputConfig{
			"logfile": {Type: OutputFile, Path: "~/relcore.log", Format: FormatJSON},
			"stderr":  {Type: OutputStderr, Format: FormatConsole},
		},
		Emitters: map[string]EmitterConfig{
			"all":      {OutputName: "logfile", Level: LevelInfo},
			"problems": {OutputName: "stderr", Level: LevelWarning},
		},
	}
}

// parseLogging converts a logging_cfg block tree into a LoggingConfig.
// Validation errors are reported against the full dotted key path.
func parseLogging(b *blockNode) (*LoggingConfig, error) {
	cfg := &LoggingConfig{
		Version:  LoggingVersion,
		Outputs:  make(map[string]OutputConfig),
		Emitters: make(map[string]EmitterConfig),
	}

	for _, name := range b.order {
		e := b.entries[name]
		switch name {
		case "version":
			if e.block != nil {
				return nil, &ValidationError{Key: "logging_cfg.version", Msg: "must be a scalar"}
			}
			if e.scalar != LoggingVersion {
				return nil, &ValidationError{Key: "logging_cfg.version", Msg: fmt.Sprintf("unsupported version %q, want %q", e.scalar, LoggingVersion)}
			}
			cfg.Version = e.scalar
		case "outputs":
			if e.block == nil {
				return nil, &ValidationError{Key: "logging_cfg.outputs", Msg: "must be a block"}
			}
			for _, outName := range e.block.order {
				out, err := parseOutput(outName, e.block.entries[outName])
				if err != nil {
					return nil, err
				}
				cfg.Outputs[outName] = out
			}
		case "emitters":
			if e.block == nil {
				return nil, &ValidationError{Key: "logging_cfg.emitters", Msg: "must be a block"}
			}
			for _, emName := range e.block.order {
				em, err := parseEmitter(emName, e.block.entries[emName])
				if err != nil {
					return nil, err
				}
				cfg.Emitters[emName] = em
			}
		default:
			return nil, &ValidationError{Key: "logging_cfg." + name, Msg: "unknown setting"}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseOutput(name string, e entry) (OutputConfig, error) {
	prefix := "logging_cfg.outputs." + name
	if e.block == nil {
		return OutputConfig{}, &ValidationError{Key: prefix, Msg: "must be a block"}
	}

	var out OutputConfig
	for _, field := range e.block.order {
		fe := e.block.entries[field]
		if fe.block != nil {
			return OutputConfig{}, &ValidationError{Key: prefix + "." + field, Msg: "must be a scalar"}
		}
		switch field {
		case "output":
			out.Type = fe.scalar
		case "path":
			out.Path = expandHome(fe.scalar)
		case "format":
			out.Format = fe.scalar
		default:
			return OutputConfig{}, &ValidationError{Key: prefix + "." + field, Msg: "unknown setting"}
		}
	}
	return out, nil
}

func parseEmitter(name string, e entry) (EmitterConfig, error) {
	prefix := "logging_cfg.emitters." + name
	if e.block == nil {
		return EmitterConfig{}, &ValidationError{Key: prefix, Msg: "must be a block"}
	}

	var em EmitterConfig
	for _, field := range e.block.order {
		fe := e.block.entries[field]
		if fe.block != nil {
			return EmitterConfig{}, &ValidationError{Key: prefix + "." + field, Msg: "must be a scalar"}
		}
		switch field {
		case "output_name":
			em.OutputName = fe.scalar
		case "level":
			em.Level = fe.scalar
		default:
			return EmitterConfig{}, &ValidationError{Key: prefix + "." + field, Msg: "unknown setting"}
		}
	}
	return em, nil
}

// validate checks internal consistency: output kinds and formats are
// known, file outputs have a path, every emitter references a declared
// output and carries a known level.
func (c *LoggingConfig) validate() error {
	if c.Version != LoggingVersion {
		return &ValidationError{Key: "logging_cfg.version", Msg: fmt.Sprintf("unsupported version %q", c.Version)}
	}

	for name, out := range c.Outputs {
		prefix := "logging_cfg.outputs." + name
		switch out.Type {
		case OutputFile:
			if out.Path == "" {
				return &ValidationError{Key: prefix, Msg: "file output needs a path"}
			}
		case OutputStderr, OutputStdout:
			if out.Path != "" {
				return &ValidationError{Key: prefix, Msg: fmt.Sprintf("%s output does not take a path", out.Type)}
			}
		case "":
			return &ValidationError{Key: prefix, Msg: "output type is required"}
		default:
			return &ValidationError{Key: prefix, Msg: fmt.Sprintf("unknown output type %q", out.Type)}
		}
		switch out.Format {
		case "", FormatJSON, FormatConsole:
		default:
			return &ValidationError{Key: prefix + ".format", Msg: fmt.Sprintf("unknown format %q", out.Format)}
		}
	}

	for name, em := range c.Emitters {
		prefix := "logging_cfg.emitters." + name
		if em.OutputName == "" {
			return &ValidationError{Key: prefix, Msg: "output_name is required"}
		}
		if _, ok := c.Outputs[em.OutputName]; !ok {
			return &ValidationError{Key: prefix, Msg: fmt.Sprintf("references undeclared output %q", em.OutputName)}
		}
		if !slices.Contains(Levels, em.Level) {
			return &ValidationError{Key: prefix + ".level", Msg: fmt.Sprintf("unknown level %q", em.Level)}
		}
	}

	return nil
}

// EffectiveFormat resolves an output's format, applying the per-type
// default when unset.
func (o OutputConfig) EffectiveFormat() string {
	if o.Format != "" {
		return o.Format
	}
	if o.Type == OutputFile {
		return FormatJSON
	}
	return FormatConsole
}
