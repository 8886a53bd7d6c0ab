package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Load parses and validates the config file at path against the core
// schema. An empty path yields pure defaults.
func Load(path string) (*Model, error) {
	return NewSchema().Load(path)
}

// LoadDefault builds a model from the conventional config file location
// (see DefaultPath). A missing conventional file is not an error; the
// model then carries pure defaults.
func LoadDefault() (*Model, error) {
	return NewSchema().LoadDefault()
}

// Defaults returns a model holding every key's default value.
func (s *Schema) Defaults() *Model {
	values := make(map[string]any, len(s.keys))
	for name, def := range s.keys {
		switch {
		case name == KeyLoggingCfg:
			// Rebuilt per model so models never share mutable state.
			values[name] = DefaultLogging()
		case def.Kind == KindPath:
			values[name] = expandHome(def.Default.(string))
		default:
			values[name] = def.Default
		}
	}
	return &Model{values: values}
}

// Load produces a validated Model from the file at path, merged over
// the schema's defaults. An empty path means "defaults only". A path
// that does not exist fails with *MissingFileError; malformed syntax
// with *ParseError; rule violations and unknown keys with
// *ValidationError.
func (s *Schema) Load(path string) (*Model, error) {
	model := s.Defaults()
	if path == "" {
		return model, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	root, err := parse(path, string(data))
	if err != nil {
		return nil, err
	}

	for _, name := range root.order {
		def, ok := s.Lookup(name)
		if !ok {
			return nil, &ValidationError{Key: name, Msg: "unknown configuration key"}
		}
		value, err := convert(def, root.entries[name])
		if err != nil {
			return nil, err
		}
		model.values[name] = value
	}

	return model, nil
}

// LoadDefault resolves the conventional config path for this schema and
// loads it; when no file exists at any conventional location the
// defaults are returned as-is.
func (s *Schema) LoadDefault() (*Model, error) {
	path := DefaultPath()
	if path == "" {
		return s.Defaults(), nil
	}
	return s.Load(path)
}

// convert turns a parsed entry into the key's typed value and applies
// the key's validation rule.
func convert(def KeyDef, e entry) (any, error) {
	if def.Kind == KindLogging {
		if e.block == nil {
			return nil, &ValidationError{Key: def.Name, Msg: "must be a block"}
		}
		return parseLogging(e.block)
	}
	if e.block != nil {
		return nil, &ValidationError{Key: def.Name, Msg: "must be a scalar, not a block"}
	}

	raw := e.scalar
	switch def.Kind {
	case KindString:
		if len(def.Choices) > 0 && !slices.Contains(def.Choices, raw) {
			return nil, &ValidationError{Key: def.Name, Msg: fmt.Sprintf("%q is not one of %s", raw, strings.Join(def.Choices, ", "))}
		}
		return raw, nil
	case KindBool:
		v, err := parseBool(raw)
		if err != nil {
			return nil, &ValidationError{Key: def.Name, Msg: err.Error()}
		}
		return v, nil
	case KindInt:
		if !e.quoted {
			for _, word := range def.Sentinels {
				if strings.EqualFold(raw, word) {
					return 0, nil
				}
			}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ValidationError{Key: def.Name, Msg: fmt.Sprintf("not an integer: %q", raw)}
		}
		if def.Check != nil {
			if err := def.Check(v); err != nil {
				return nil, &ValidationError{Key: def.Name, Msg: err.Error()}
			}
		}
		return v, nil
	case KindURL:
		if err := checkURL(raw); err != nil {
			return nil, &ValidationError{Key: def.Name, Msg: err.Error()}
		}
		return raw, nil
	case KindPath:
		return expandHome(raw), nil
	}
	return nil, &ValidationError{Key: def.Name, Msg: "unsupported kind"}
}

// expandHome expands a leading ~ to the current user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return home + path[1:]
	}
	return path
}
