package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/relcore/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective, validated configuration",
	Long: `Print the effective configuration: the defaults merged with the
config file, after validation. The output is itself valid config file
syntax.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	schema, err := newSchema()
	if err != nil {
		return err
	}
	var cfg *config.Model
	if configPath != "" {
		cfg, err = schema.Load(configPath)
	} else {
		cfg, err = schema.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, name := range schema.Names() {
		value, ok := cfg.Get(name)
		if !ok {
			continue
		}
		if lc, isLogging := value.(*config.LoggingConfig); isLogging {
			fmt.Fprint(out, renderLogging(name, lc))
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", name, renderScalar(value))
	}
	return nil
}

func renderScalar(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderLogging(name string, lc *config.LoggingConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", name)
	fmt.Fprintf(&b, "  version = %q\n", lc.Version)
	fmt.Fprintf(&b, "  outputs {\n")
	for _, outputName := range sortedKeys(lc.Outputs) {
		o := lc.Outputs[outputName]
		fmt.Fprintf(&b, "    %s {\n", outputName)
		fmt.Fprintf(&b, "      output = %q\n", o.Type)
		if o.Path != "" {
			fmt.Fprintf(&b, "      path = %q\n", o.Path)
		}
		fmt.Fprintf(&b, "      format = %q\n", o.EffectiveFormat())
		fmt.Fprintf(&b, "    }\n")
	}
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "  emitters {\n")
	for _, emitterName := range sortedKeys(lc.Emitters) {
		e := lc.Emitters[emitterName]
		fmt.Fprintf(&b, "    %s {\n", emitterName)
		fmt.Fprintf(&b, "      output_name = %q\n", e.OutputName)
		fmt.Fprintf(&b, "      level = %q\n", e.Level)
		fmt.Fprintf(&b, "    }\n")
	}
	fmt.Fprintf(&b, "  }\n")
	b.WriteString("}\n")
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
