// Package hash provides the SHA256 helpers used to verify downloaded
// artifacts.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the hex-encoded SHA256 digest of the file at path,
// computed in a streaming fashion.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether the file at path has the expected hex SHA256
// digest. The comparison is case-insensitive.
func Verify(path, wantHex string) (bool, error) {
	got, err := FileSHA256(path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(got, wantHex), nil
}

// SHA256 returns the hex-encoded SHA256 digest of in-memory data.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
