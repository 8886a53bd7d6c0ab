package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loggingFixture = `
logging_cfg {
    version = 1.0
    outputs {
        logfile {
            output = file
            path = /tmp/relcore-test.log
        }
        console {
            output = stderr
            format = console
        }
    }
    emitters {
        all {
            output_name = logfile
            level = DEBUG
        }
        problems {
            output_name = console
            level = ERROR
        }
    }
}
`

func TestLoadLoggingConfig(t *testing.T) {
	m, err := Load(writeConfig(t, loggingFixture))
	require.NoError(t, err)

	logging := m.Logging()
	require.NotNil(t, logging)
	assert.Equal(t, "1.0", logging.Version)

	require.Contains(t, logging.Outputs, "logfile")
	assert.Equal(t, OutputFile, logging.Outputs["logfile"].Type)
	assert.Equal(t, "/tmp/relcore-test.log", logging.Outputs["logfile"].Path)

	require.Contains(t, logging.Emitters, "all")
	assert.Equal(t, "logfile", logging.Emitters["all"].OutputName)
	assert.Equal(t, LevelDebug, logging.Emitters["all"].Level)
	assert.Equal(t, LevelError, logging.Emitters["problems"].Level)
}

func TestLoggingConfigReplacesDefaultWholesale(t *testing.T) {
	m, err := Load(writeConfig(t, loggingFixture))
	require.NoError(t, err)

	// The default "stderr" output is not merged in.
	assert.NotContains(t, m.Logging().Outputs, "stderr")
}

func TestLoggingValidationErrors(t *testing.T) {
	cases := map[string]struct {
		contents string
		keyPart  string
	}{
		"bad version": {
			"logging_cfg { version = 2.0 }\n",
			"logging_cfg.version",
		},
		"unknown level": {
			`logging_cfg {
				outputs { o { output = stderr } }
				emitters { e { output_name = o  level = CHATTY } }
			}`,
			"logging_cfg.emitters.e.level",
		},
		"undeclared output": {
			`logging_cfg {
				emitters { e { output_name = ghost  level = INFO } }
			}`,
			"logging_cfg.emitters.e",
		},
		"file output without path": {
			"logging_cfg { outputs { f { output = file } } }\n",
			"logging_cfg.outputs.f",
		},
		"stream output with path": {
			"logging_cfg { outputs { s { output = stdout  path = /tmp/x } } }\n",
			"logging_cfg.outputs.s",
		},
		"unknown output type": {
			"logging_cfg { outputs { o { output = syslog } } }\n",
			"logging_cfg.outputs.o",
		},
		"unknown format": {
			"logging_cfg { outputs { o { output = stderr  format = xml } } }\n",
			"logging_cfg.outputs.o.format",
		},
		"missing output_name": {
			"logging_cfg { emitters { e { level = INFO } } }\n",
			"logging_cfg.emitters.e",
		},
		"unknown emitter field": {
			"logging_cfg { emitters { e { output_name = x  colour = red } } }\n",
			"logging_cfg.emitters.e.colour",
		},
		"unknown top-level field": {
			"logging_cfg { incremental = true }\n",
			"logging_cfg.incremental",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.keyPart, verr.Key)
		})
	}
}

func TestDefaultLoggingIsValid(t *testing.T) {
	cfg := DefaultLogging()
	require.NoError(t, cfg.validate())
}

func TestDefaultLoggingIsNotShared(t *testing.T) {
	a, err := Load("")
	require.NoError(t, err)
	b, err := Load("")
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	assert.NotSame(t, a.Logging(), b.Logging())
}

func TestEffectiveFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, OutputConfig{Type: OutputFile}.EffectiveFormat())
	assert.Equal(t, FormatConsole, OutputConfig{Type: OutputStderr}.EffectiveFormat())
	assert.Equal(t, FormatConsole, OutputConfig{Type: OutputFile, Format: FormatConsole}.EffectiveFormat())
}

func TestLoggingFilePathExpansion(t *testing.T) {
	m, err := Load(writeConfig(t, `
logging_cfg {
    outputs { logfile { output = file  path = ~/relcore-test.log } }
    emitters { all { output_name = logfile  level = INFO } }
}
`))
	require.NoError(t, err)

	path := m.Logging().Outputs["logfile"].Path
	assert.NotContains(t, path, "~")
}
