package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigFileName is the config file name under the XDG config dir.
const ConfigFileName = "relcore/relcore.cfg"

// LegacyFileName is the historic dotfile location in the home dir.
const LegacyFileName = ".relcore.cfg"

// DefaultPath resolves the conventional config file location: the XDG
// config directories first, then the legacy ~/.relcore.cfg. Returns ""
// when no file exists at any of them.
func DefaultPath() string {
	if path, err := xdg.SearchConfigFile(ConfigFileName); err == nil {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	legacy := filepath.Join(home, LegacyFileName)
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return ""
}
