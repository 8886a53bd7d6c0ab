package config

import "reflect"

// Model is the validated, immutable configuration for one process run.
// It is safe for concurrent reads; there is no way to mutate it after
// construction.
type Model struct {
	values map[string]any
}

// Get returns the raw value for a key and whether the key is known.
// Values are string, bool, int or *LoggingConfig depending on the key's
// kind.
func (m *Model) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// String returns a string-kind value. Unknown keys and kind mismatches
// return the zero value; typed keys should use the named accessors.
func (m *Model) String(name string) string {
	v, _ := m.values[name].(string)
	return v
}

// Int returns an int-kind value.
func (m *Model) Int(name string) int {
	v, _ := m.values[name].(int)
	return v
}

// Bool returns a bool-kind value.
func (m *Model) Bool(name string) bool {
	v, _ := m.values[name].(bool)
	return v
}

// Equal reports whether two models hold the same value for every key.
func (m *Model) Equal(other *Model) bool {
	if m == nil || other == nil {
		return m == other
	}
	return reflect.DeepEqual(m.values, other.values)
}

// AnsibleBaseURL is the git URL ansible-core is cloned from.
func (m *Model) AnsibleBaseURL() string { return m.String(KeyAnsibleBaseURL) }

// Breadcrumbs reports whether docs builds should emit breadcrumbs.
func (m *Model) Breadcrumbs() bool { return m.Bool(KeyBreadcrumbs) }

// Chunksize is the read size, in bytes, for streaming downloads.
func (m *Model) Chunksize() int { return m.Int(KeyChunksize) }

// DocParsingBackend selects the documentation parsing backend.
func (m *Model) DocParsingBackend() string { return m.String(KeyDocParsingBackend) }

// GalaxyURL is the base URL of the Galaxy server.
func (m *Model) GalaxyURL() string { return m.String(KeyGalaxyURL) }

// Indexes reports whether docs builds should generate index pages.
func (m *Model) Indexes() bool { return m.Bool(KeyIndexes) }

// Logging is the validated logging configuration.
func (m *Model) Logging() *LoggingConfig {
	v, _ := m.values[KeyLoggingCfg].(*LoggingConfig)
	return v
}

// MaxRetries bounds retry attempts for remote requests.
func (m *Model) MaxRetries() int { return m.Int(KeyMaxRetries) }

// ProcessMax bounds subprocess parallelism; 0 means use all available.
func (m *Model) ProcessMax() int { return m.Int(KeyProcessMax) }

// PyPIURL is the base URL of the PyPI server.
func (m *Model) PyPIURL() string { return m.String(KeyPyPIURL) }

// UseHTMLBlobs reports whether docs builds should inline HTML blobs.
func (m *Model) UseHTMLBlobs() bool { return m.Bool(KeyUseHTMLBlobs) }

// ThreadMax bounds worker-pool concurrency.
func (m *Model) ThreadMax() int { return m.Int(KeyThreadMax) }

// FileCheckContent is the byte budget for content-compare-before-copy;
// 0 disables the check.
func (m *Model) FileCheckContent() int { return m.Int(KeyFileCheckContent) }

// CollectionCache is the optional directory of cached collection
// tarballs; empty when unset.
func (m *Model) CollectionCache() string { return m.String(KeyCollectionCache) }
