package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sge-engine/sgetool/pkg/buildlog"
	"github.com/sge-engine/sgetool/pkg/shaders"
)

func newPipeline(cmd *cobra.Command) (*shaders.Pipeline, error) {
	dry, err := dryRun(cmd)
	if err != nil {
		return nil, err
	}

	cfg := current.cfg
	rev, err := shaders.ParseRevision(cfg.Shaders.Revision)
	if err != nil {
		return nil, err
	}

	policy, err := shaders.ParsePolicy(cfg.Shaders.OnError)
	if err != nil {
		return nil, err
	}

	pl := &shaders.Pipeline{
		Runner:    newRunner(dry),
		Root:      current.root,
		Layout:    cfg.Layout(),
		Platform:  cfg.Platform,
		Revision:  rev,
		Compiler:  cfg.Shaders.Compiler,
		TargetEnv: cfg.Shaders.TargetEnv,
		Policy:    policy,
		DryRun:    dry,
	}

	// the progress bar only makes sense on interactive terminals
	flag := cmd.Flags().Lookup("no-progress")
	if flag != nil && flag.Value.String() == "false" && !dry && !cfg.Log.JSON && os.Getenv("CI") != "true" {
		pl.Progress = os.Stderr
	}

	return pl, nil
}

var shadersCmd = &cobra.Command{
	Use:   "shaders",
	Short: "Compiles all shaders to SPIR-V",
	Long: `Compiles res/*.vert, res/*.frag, res/*.comp and examples/*/*.comp with glslangValidator
and moves the resulting .spv files into the project directory the engine is run from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pl, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		buildlog.PrintTask("Compiling shaders")
		report, err := pl.Run(current.ctx)

		reportPath, flagErr := cmd.Flags().GetString("report")
		if flagErr != nil {
			return flagErr
		}

		if report != nil && reportPath != "" {
			rErr := report.WriteYAML(reportPath)
			switch {
			case rErr == nil:
				buildlog.PrintSubtask("Report written to " + reportPath)
			case err == nil:
				return rErr
			default:
				// the pipeline error is more relevant
				current.logger.Error().Err(rErr).Msg("Failed to write report")
			}
		}

		if err != nil {
			return err
		}

		buildlog.PrintTask(fmt.Sprintf("Done (%d shaders)", len(report.Entries)))
		return nil
	},
}

var shadersCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes artifacts that no longer have a shader source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pl, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		removed, err := pl.Clean(current.ctx)
		if err != nil {
			return eris.Wrap(err, "failed to clean artifacts")
		}

		buildlog.PrintTask(fmt.Sprintf("Done (%d stale artifacts)", len(removed)))
		return nil
	},
}

func init() {
	flags := shadersCmd.Flags()
	flags.BoolP("dry", "n", false, "dry run; only print the compiler commands")
	flags.IntP("revision", "r", 0, "compiler invocation style (1, 2 or 3)")
	flags.String("on-error", "", "what to do when a shader fails (abort or continue)")
	flags.String("compiler", "", "shader compiler to run")
	flags.String("report", "", "write a YAML report of the run to this file")
	flags.Bool("no-progress", false, "don't show a progress bar")

	shadersCleanCmd.Flags().BoolP("dry", "n", false, "dry run; only list the stale artifacts")

	shadersCmd.AddCommand(shadersCleanCmd)
	rootCmd.AddCommand(shadersCmd)
}
