package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sge-engine/sgetool/pkg/buildlog"
	"github.com/sge-engine/sgetool/pkg/config"
	"github.com/sge-engine/sgetool/pkg/execx"
	"github.com/sge-engine/sgetool/pkg/workspace"
)

// session holds everything the subcommands share after the root command set up
type session struct {
	root   string
	cfg    *config.Config
	logger zerolog.Logger
	ctx    context.Context
}

var current session

var rootCmd = &cobra.Command{
	Use:   "sgetool",
	Short: "Build helpers for SGE",
	Long: `This command bundles the helpers needed to build SGE: generating the native
project with cmake and compiling the shaders to SPIR-V.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		rootOverride, err := flags.GetString("root")
		if err != nil {
			return err
		}

		root, err := workspace.ResolveRoot(rootOverride)
		if err != nil {
			return err
		}

		cfgPath, err := flags.GetString("config")
		if err != nil {
			return err
		}
		if cfgPath == "" {
			cfgPath = config.DefaultPath(root)
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		if flags.Changed("log-level") {
			cfg.Log.Level, _ = flags.GetString("log-level")
		}
		if flags.Changed("json") {
			cfg.Log.JSON, _ = flags.GetBool("json")
		}
		if flags.Changed("os") {
			cfg.Platform, _ = flags.GetString("os")
		}

		if err = applyFlags(cmd, cfg); err != nil {
			return err
		}

		if err = cfg.Validate(); err != nil {
			return err
		}

		current = session{
			root: root,
			cfg:  cfg,
			logger: buildlog.New(os.Stderr, buildlog.Options{
				Level:   cfg.LogLevel(),
				JSON:    cfg.Log.JSON,
				Root:    root,
				NoColor: os.Getenv("NO_COLOR") != "",
			}),
		}
		current.ctx = buildlog.WithLogger(cmd.Context(), &current.logger)

		return nil
	},
}

// applyFlags copies command specific flags into the config if they were passed
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Lookup("fallback") != nil && flags.Changed("fallback") {
		cfg.CMake.Fallback, err = flags.GetBool("fallback")
	}
	if err == nil && flags.Lookup("cmake") != nil && flags.Changed("cmake") {
		cfg.CMake.Bin, err = flags.GetString("cmake")
	}
	if err == nil && flags.Lookup("revision") != nil && flags.Changed("revision") {
		cfg.Shaders.Revision, err = flags.GetInt("revision")
	}
	if err == nil && flags.Lookup("on-error") != nil && flags.Changed("on-error") {
		cfg.Shaders.OnError, err = flags.GetString("on-error")
	}
	if err == nil && flags.Lookup("compiler") != nil && flags.Changed("compiler") {
		cfg.Shaders.Compiler, err = flags.GetString("compiler")
	}

	return err
}

func dryRun(cmd *cobra.Command) (bool, error) {
	if cmd.Flags().Lookup("dry") == nil {
		return false, nil
	}

	return cmd.Flags().GetBool("dry")
}

// newRunner returns the runner for the current invocation
func newRunner(dry bool) execx.Runner {
	if dry {
		return execx.DryRunner{Logger: &current.logger}
	}

	if current.cfg.Log.JSON {
		// keep stdout/stderr parseable
		return execx.NewShellRunner(nil, nil)
	}

	return execx.NewShellRunner(os.Stdout, os.Stderr)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "SGE checkout to operate on (default: search upwards from the working directory)")
	flags.String("config", "", "config file (default: <root>/sgetool.toml)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.Bool("json", false, "print JSON log lines instead of console messages")
	flags.String("os", "", "build for this platform instead of the host (windows, linux, darwin)")
}

// Execute runs the CLI
func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}
