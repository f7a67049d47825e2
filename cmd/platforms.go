package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/sge-engine/sgetool/pkg/platform"
)

func printPlatforms(out io.Writer, hostGOOS string) {
	lineFmt := " %s %-8s %-8s %-24s %-10s %s\n"
	fmt.Fprintf(out, lineFmt, " ", "NAME", "GOOS", "GENERATOR", "DEST", "MACRO")

	for _, p := range platform.All() {
		marker := " "
		if p.GOOS == hostGOOS {
			marker = colorstring.Color("[green][bold]*[reset]")
		}

		generator := p.Generator
		if generator == "" {
			generator = "(cmake default)"
		}

		fmt.Fprintf(out, lineFmt, marker, p.Name, p.GOOS, generator, p.ArtifactDir, p.MacroDefinition())
	}
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "Lists the supported platforms",
	Long:  `Prints the platform table. The host platform is marked with a *.`,
	Args:  cobra.NoArgs,
	// doesn't need a checkout
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		printPlatforms(cmd.OutOrStdout(), runtime.GOOS)
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}
