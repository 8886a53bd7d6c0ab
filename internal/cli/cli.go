// Package cli provides the command-line interface for relcore.
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asteroid-belt/relcore/internal/httputil"
	"github.com/asteroid-belt/relcore/internal/logging"
	"github.com/asteroid-belt/relcore/pkg/config"
	"github.com/asteroid-belt/relcore/pkg/version"
)

// KeyDownloadDir is the CLI's own configuration key, registered on top
// of the core schema. It sets the default --dest of the download
// commands.
const KeyDownloadDir = "download_dir"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "relcore",
	Short: "Support tooling for building ansible community releases",
	Long: `Support tooling for building ansible community releases.

relcore talks to Ansible Galaxy and PyPI to fetch collection and
ansible-core release artifacts, verifies and caches them, and reads the
dependency files a release is described by.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: "+config.ConfigFileName+" in the XDG config dirs)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(coreCmd)
	rootCmd.AddCommand(depsCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context) error {
	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Display()),
		fang.WithCommit(version.Commit),
	)
}

// newSchema returns the core schema extended with the CLI's keys.
func newSchema() (*config.Schema, error) {
	s := config.NewSchema()
	err := s.Register(config.KeyDef{
		Name:    KeyDownloadDir,
		Kind:    config.KindPath,
		Default: "",
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", KeyDownloadDir, err)
	}
	return s, nil
}

// loadConfig builds the effective configuration, honoring --config.
func loadConfig() (*config.Model, error) {
	schema, err := newSchema()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		return schema.Load(configPath)
	}
	return schema.LoadDefault()
}

// setupLogging builds the zap logger the config describes. The returned
// close function flushes and releases the log sinks.
func setupLogging(cfg *config.Model) (*zap.Logger, func(), error) {
	return logging.New(cfg.Logging())
}

// httpClient builds the retrying HTTP client the config describes.
func httpClient(cfg *config.Model) *httputil.Client {
	opts := httputil.DefaultOptions()
	opts.MaxRetries = cfg.MaxRetries()
	return httputil.NewClient(opts)
}
