package config

import "fmt"

// ParseError reports malformed config file syntax.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: parse error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("config: %s:%d: %s", e.Path, e.Line, e.Msg)
}

// ValidationError reports a value that violates its schema rule, or a
// key that the schema does not recognize.
type ValidationError struct {
	Key string
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid value for %q: %s", e.Key, e.Msg)
}

// DuplicateKeyError reports an attempt to register a key name that the
// schema already defines.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("config: key %q is already registered", e.Key)
}

// MissingFileError reports an explicitly requested config file that
// does not exist.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("config: file %s does not exist", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}
