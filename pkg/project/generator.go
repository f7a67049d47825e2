// Package project generates the native IDE project for the engine by running cmake.
package project

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sge-engine/sgetool/pkg/buildlog"
	"github.com/sge-engine/sgetool/pkg/execx"
	"github.com/sge-engine/sgetool/pkg/platform"
	"github.com/sge-engine/sgetool/pkg/workspace"
)

// Generator runs the build system configurator for a checkout
type Generator struct {
	Runner execx.Runner
	Root   string
	Layout workspace.Layout
	// CMake is the configurator binary
	CMake string
	// Platform overrides the host platform if set
	Platform string
	// Fallback runs cmake without a generator on unsupported platforms instead of failing
	Fallback bool
	DryRun   bool
}

// Invocation builds the cmake call for the given platform
func (g *Generator) Invocation(p platform.Platform) execx.Invocation {
	bin := g.CMake
	if bin == "" {
		bin = "cmake"
	}

	args := append(p.GeneratorArgs(), filepath.Join(g.Root, g.Layout.CMake))
	return execx.Command(filepath.Join(g.Root, g.Layout.Projects), bin, args...)
}

func (g *Generator) resolve(ctx context.Context) (platform.Platform, error) {
	p, err := platform.Resolve(g.Platform)
	if err == nil {
		return p, nil
	}

	if !g.Fallback || !eris.Is(err, platform.ErrUnsupported) {
		return p, err
	}

	buildlog.Log(ctx).Warn().
		Str("task", "gen").
		Msgf("%s, running cmake with its default generator", err.Error())

	return platform.Platform{Name: "generic"}, nil
}

// Generate creates the project directory and runs cmake inside it exactly once.
// A non-zero exit status is returned as an error together with the result.
func (g *Generator) Generate(ctx context.Context) (*execx.Result, error) {
	p, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}

	inv := g.Invocation(p)
	logger := buildlog.Log(ctx)
	if !g.DryRun {
		if err = os.MkdirAll(inv.Dir, 0o770); err != nil {
			return nil, eris.Wrapf(err, "failed to create %s", inv.Dir)
		}
	}

	logger.Info().
		Str("task", "gen").
		Str("platform", p.Name).
		Str("path", inv.Dir).
		Msgf("generating %s project in %s", describe(p), inv.Dir)

	result, err := g.Runner.Run(ctx, inv)
	if err != nil {
		return nil, eris.Wrap(err, "failed to run cmake")
	}

	if err = result.Err(); err != nil {
		return result, eris.Wrap(err, "project generation failed")
	}

	return result, nil
}

func describe(p platform.Platform) string {
	if p.Generator == "" {
		return "default"
	}

	return p.Generator
}
