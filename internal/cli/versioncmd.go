package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/relcore/pkg/version"
)

var versionFull bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFull {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include commit, build date and platform details")
	rootCmd.AddCommand(versionCmd)
}
