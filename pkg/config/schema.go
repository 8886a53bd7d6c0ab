// Package config loads and validates the layered configuration used by
// release-building tools.
//
// Every recognized key has a statically known default, so a model built
// from an empty file (or no file at all) is always fully populated.
// Dependent tools can register additional keys through Schema.Register
// before loading; the core key set never changes underneath them.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Kind is the semantic type of a config value.
type Kind int

const (
	// KindString is a free-form or choice-restricted string.
	KindString Kind = iota
	// KindBool accepts true/false, t/f, yes/no, 1/0.
	KindBool
	// KindInt is an integer, optionally with sentinel words mapping to 0.
	KindInt
	// KindURL is an absolute http(s) URL.
	KindURL
	// KindPath is a filesystem path; a leading ~ is expanded.
	KindPath
	// KindLogging is the nested logging configuration block.
	KindLogging
)

// KeyDef declares one recognized configuration key.
type KeyDef struct {
	Name    string
	Kind    Kind
	Default any

	// Choices restricts KindString values to an allowed set.
	Choices []string

	// Sentinels are words a KindInt key accepts as meaning 0
	// (process_max uses this for "use all available parallelism").
	Sentinels []string

	// Check is an optional rule applied after type conversion.
	Check func(v any) error
}

// Schema is the registry of recognized keys. The zero value is not
// usable; construct one with NewSchema.
type Schema struct {
	keys map[string]KeyDef
}

// NewSchema returns a schema preloaded with the core key set.
func NewSchema() *Schema {
	s := &Schema{keys: make(map[string]KeyDef)}
	for _, def := range coreKeys() {
		s.keys[def.Name] = def
	}
	return s
}

// Register adds a key definition to the schema. Registering a name that
// already exists fails with a *DuplicateKeyError; the existing
// definition is left untouched.
func (s *Schema) Register(def KeyDef) error {
	if def.Name == "" {
		return fmt.Errorf("config: cannot register a key with an empty name")
	}
	if _, ok := s.keys[def.Name]; ok {
		return &DuplicateKeyError{Key: def.Name}
	}
	if err := validateDefault(def); err != nil {
		return fmt.Errorf("config: bad definition for %q: %w", def.Name, err)
	}
	s.keys[def.Name] = def
	return nil
}

// Lookup returns the definition for a key name.
func (s *Schema) Lookup(name string) (KeyDef, bool) {
	def, ok := s.keys[name]
	return def, ok
}

// Names returns all registered key names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// validateDefault rejects definitions whose default would itself fail
// loading. Absent keys always take the default, so it has to be sound.
func validateDefault(def KeyDef) error {
	switch def.Kind {
	case KindString:
		v, ok := def.Default.(string)
		if !ok {
			return fmt.Errorf("default must be a string")
		}
		if len(def.Choices) > 0 && !slices.Contains(def.Choices, v) {
			return fmt.Errorf("default %q is not among the choices", v)
		}
	case KindBool:
		if _, ok := def.Default.(bool); !ok {
			return fmt.Errorf("default must be a bool")
		}
	case KindInt:
		v, ok := def.Default.(int)
		if !ok {
			return fmt.Errorf("default must be an int")
		}
		if def.Check != nil {
			if err := def.Check(v); err != nil {
				return err
			}
		}
	case KindURL:
		v, ok := def.Default.(string)
		if !ok {
			return fmt.Errorf("default must be a URL string")
		}
		if err := checkURL(v); err != nil {
			return err
		}
	case KindPath:
		if _, ok := def.Default.(string); !ok {
			return fmt.Errorf("default must be a path string")
		}
	case KindLogging:
		if _, ok := def.Default.(*LoggingConfig); !ok {
			return fmt.Errorf("default must be a *LoggingConfig")
		}
	default:
		return fmt.Errorf("unknown kind %d", def.Kind)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

func positiveInt(v any) error {
	if v.(int) <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func nonNegativeInt(v any) error {
	if v.(int) < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// Core key names.
const (
	KeyAnsibleBaseURL    = "ansible_base_url"
	KeyBreadcrumbs       = "breadcrumbs"
	KeyChunksize         = "chunksize"
	KeyDocParsingBackend = "doc_parsing_backend"
	KeyGalaxyURL         = "galaxy_url"
	KeyIndexes           = "indexes"
	KeyLoggingCfg        = "logging_cfg"
	KeyMaxRetries        = "max_retries"
	KeyProcessMax        = "process_max"
	KeyPyPIURL           = "pypi_url"
	KeyUseHTMLBlobs      = "use_html_blobs"
	KeyThreadMax         = "thread_max"
	KeyFileCheckContent  = "file_check_content"
	KeyCollectionCache   = "collection_cache"
)

// DocParsingBackends are the accepted doc_parsing_backend values.
var DocParsingBackends = []string{
	"auto", "ansible-doc", "ansible-core-2.13", "ansible-internal",
}

func coreKeys() []KeyDef {
	return []KeyDef{
		{Name: KeyAnsibleBaseURL, Kind: KindURL, Default: "https://github.com/ansible/ansible"},
		{Name: KeyBreadcrumbs, Kind: KindBool, Default: true},
		{Name: KeyChunksize, Kind: KindInt, Default: 4096, Check: positiveInt},
		{Name: KeyDocParsingBackend, Kind: KindString, Default: "ansible-internal", Choices: DocParsingBackends},
		{Name: KeyGalaxyURL, Kind: KindURL, Default: "https://galaxy.ansible.com/"},
		{Name: KeyIndexes, Kind: KindBool, Default: true},
		{Name: KeyLoggingCfg, Kind: KindLogging, Default: DefaultLogging()},
		{Name: KeyMaxRetries, Kind: KindInt, Default: 10, Check: nonNegativeInt},
		{Name: KeyProcessMax, Kind: KindInt, Default: 0, Sentinels: []string{"unbounded", "none"}, Check: nonNegativeInt},
		{Name: KeyPyPIURL, Kind: KindURL, Default: "https://pypi.org/"},
		{Name: KeyUseHTMLBlobs, Kind: KindBool, Default: false},
		{Name: KeyThreadMax, Kind: KindInt, Default: 8, Check: positiveInt},
		{Name: KeyFileCheckContent, Kind: KindInt, Default: 262144, Check: nonNegativeInt},
		{Name: KeyCollectionCache, Kind: KindPath, Default: ""},
	}
}

// parseBool follows the legacy template's loose boolean spelling.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
