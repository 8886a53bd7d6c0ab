// Package yamlio reads and writes YAML documents with consistent
// formatting.
package yamlio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/asteroid-belt/relcore/internal/fileutil"
)

// Load decodes one YAML document from r into out.
func Load(r io.Reader, out any) error {
	if err := yaml.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// LoadFile decodes the YAML document at path into out.
func LoadFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := Load(f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Store encodes in as YAML to w, indented with two spaces.
func Store(w io.Writer, in any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// StoreFile writes in as YAML to path, replacing the file atomically.
func StoreFile(path string, in any) error {
	var buf bytes.Buffer
	if err := Store(&buf, in); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fileutil.WriteAtomic(path, buf.Bytes(), 0644)
}
