package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/relcore/internal/depsfile"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Work with dependency files",
}

var depsShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Parse and print a .deps or .build file",
	Long: `Parse a dependency file and print its normalized content.

Files ending in .build are read as constraint files; everything else is
read as a pinned .deps file.`,
	Args: cobra.ExactArgs(1),
	RunE: runDepsShow,
}

func init() {
	depsCmd.AddCommand(depsShowCmd)
}

func runDepsShow(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	if strings.HasSuffix(path, ".build") {
		build, err := depsfile.ParseBuild(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "ansible: %s\n", build.AnsibleVersion)
		fmt.Fprintf(out, "ansible-core: %s\n", build.AnsibleCoreVersion)
		printSorted(out, build.Constraints)
		return nil
	}

	deps, err := depsfile.ParseDeps(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ansible: %s\n", deps.Ansible)
	fmt.Fprintf(out, "ansible-core: %s\n", deps.AnsibleCore)
	printSorted(out, deps.Collections)
	return nil
}

func printSorted(out io.Writer, entries map[string]string) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, entries[name])
	}
}
