package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sge-engine/sgetool/pkg/buildlog"
	"github.com/sge-engine/sgetool/pkg/project"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generates the native project with cmake",
	Long: `Creates the projects directory and runs cmake inside it with the generator
matching the platform (Visual Studio on Windows, Xcode on macOS, the cmake default on Linux).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dry, err := dryRun(cmd)
		if err != nil {
			return err
		}

		cfg := current.cfg
		gen := &project.Generator{
			Runner:   newRunner(dry),
			Root:     current.root,
			Layout:   cfg.Layout(),
			CMake:    cfg.CMake.Bin,
			Platform: cfg.Platform,
			Fallback: cfg.CMake.Fallback,
			DryRun:   dry,
		}

		buildlog.PrintTask("Generating project")
		_, err = gen.Generate(current.ctx)
		if err != nil {
			return err
		}

		buildlog.PrintTask("Done")
		return nil
	},
}

func init() {
	genCmd.Flags().BoolP("dry", "n", false, "dry run; only print the cmake command")
	genCmd.Flags().Bool("fallback", false, "run cmake with its default generator on unsupported platforms")
	genCmd.Flags().String("cmake", "", "cmake binary to run")

	rootCmd.AddCommand(genCmd)
}
