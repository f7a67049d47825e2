// Package shaders compiles the engine's GLSL sources to SPIR-V and moves the results
// into the generated project's working directory.
package shaders

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"

	"github.com/sge-engine/sgetool/pkg/buildlog"
	"github.com/sge-engine/sgetool/pkg/execx"
	"github.com/sge-engine/sgetool/pkg/platform"
	"github.com/sge-engine/sgetool/pkg/workspace"
)

const (
	// DefaultCompiler is the Khronos reference compiler
	DefaultCompiler  = "glslangValidator"
	DefaultTargetEnv = "vulkan1.0"
)

// FailurePolicy decides what happens after a shader failed to compile or copy
type FailurePolicy string

const (
	// Abort stops at the first failure
	Abort FailurePolicy = "abort"
	// Continue records the failure and moves on to the next file
	Continue FailurePolicy = "continue"
)

// ParsePolicy validates a policy name
func ParsePolicy(name string) (FailurePolicy, error) {
	switch FailurePolicy(name) {
	case Abort, Continue:
		return FailurePolicy(name), nil
	case "":
		return Abort, nil
	}

	return "", eris.Errorf("unknown failure policy %s (must be abort or continue)", name)
}

// Pipeline compiles every shader of a checkout, one file at a time
type Pipeline struct {
	Runner execx.Runner
	Root   string
	Layout workspace.Layout
	// Platform overrides the host platform if set
	Platform  string
	Revision  Revision
	Compiler  string
	TargetEnv string
	Policy    FailurePolicy
	// DryRun skips moving artifacts. Pair it with execx.DryRunner.
	DryRun bool
	// Progress receives a progress bar if set
	Progress io.Writer
}

// Destination returns the directory artifacts end up in for the given platform
func (pl *Pipeline) Destination(p platform.Platform) string {
	return filepath.Join(pl.Root, pl.Layout.Projects, filepath.FromSlash(p.ArtifactDir))
}

func (pl *Pipeline) progressBar(count int) *progressbar.ProgressBar {
	if pl.Progress == nil {
		return progressbar.NewOptions(count, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(pl.Progress),
		progressbar.OptionSetDescription("shaders"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(pl.Progress, "\n")
		}),
	)
}

// Run discovers and compiles all shaders. The returned report is never nil if the platform
// could be resolved, even if an error is returned.
func (pl *Pipeline) Run(ctx context.Context) (*Report, error) {
	// resolve everything that can fail up front so that nothing is touched on bad input
	p, err := platform.Resolve(pl.Platform)
	if err != nil {
		return nil, err
	}

	rev := pl.Revision
	if rev == 0 {
		rev = LatestRevision
	}
	if _, err := ParseRevision(int(rev)); err != nil {
		return nil, err
	}

	policy, err := ParsePolicy(string(pl.Policy))
	if err != nil {
		return nil, err
	}

	dest := pl.Destination(p)
	report := &Report{
		Platform:    p.Name,
		Revision:    int(rev),
		Destination: dest,
		DryRun:      pl.DryRun,
		Entries:     []Entry{},
	}

	logger := buildlog.Log(ctx).With().Str("task", "shaders").Logger()

	sources, err := Discover(pl.Root, pl.Layout)
	if err != nil {
		return report, eris.Wrap(err, "failed to discover shaders")
	}

	if len(sources) == 0 {
		logger.Warn().Msgf("no shaders found below %s", pl.Root)
		return report, nil
	}

	logger.Debug().
		Str("platform", p.Name).
		Int("revision", int(rev)).
		Int("count", len(sources)).
		Msgf("compiling %d shaders", len(sources))

	bar := pl.progressBar(len(sources))
	defer bar.Finish()

	destReady := false
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		bar.Describe(src.Rel)
		entry, err := pl.process(ctx, p, rev, src, dest, &destReady)
		report.Entries = append(report.Entries, entry)
		bar.Add(1)

		if err != nil {
			logger.Error().Err(err).Str("path", src.Path).Msgf("%s failed", src.Rel)
			if policy == Abort || !entry.Failed() {
				// entries without a recorded failure come from errors that can't be skipped
				return report, err
			}
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for idx, entry := range failed {
			names[idx] = entry.Source
		}

		return report, eris.Errorf("%d of %d shaders failed: %s", len(failed), len(report.Entries), strings.Join(names, ", "))
	}

	return report, nil
}

func (pl *Pipeline) process(ctx context.Context, p platform.Platform, rev Revision, src Source, dest string, destReady *bool) (Entry, error) {
	logger := buildlog.Log(ctx)

	// run next to the source with relative names so that no paths need quoting
	targetEnv := pl.TargetEnv
	if targetEnv == "" {
		targetEnv = DefaultTargetEnv
	}

	args, err := rev.CompilerArgs(p, targetEnv, src.Name(), src.ArtifactName())
	if err != nil {
		return Entry{Source: src.Rel}, err
	}

	compiler := pl.Compiler
	if compiler == "" {
		compiler = DefaultCompiler
	}

	inv := execx.Command(filepath.Dir(src.Path), compiler, args...)
	entry := Entry{
		Source:  src.Rel,
		Command: inv.String(),
	}

	logger.Info().
		Str("task", "shaders").
		Str("path", src.Path).
		Msgf("compile shader: %s", src.Path)

	result, err := pl.Runner.Run(ctx, inv)
	if err != nil {
		return entry, eris.Wrapf(err, "failed to run the compiler for %s", src.Rel)
	}

	entry.ExitCode = result.ExitCode
	entry.Duration = result.Duration.String()
	entry.Output = strings.TrimSpace(result.Stdout + "\n" + result.Stderr)

	if err = result.Err(); err != nil {
		entry.Error = err.Error()
		return entry, eris.Wrapf(err, "failed to compile %s", src.Rel)
	}

	if pl.DryRun {
		return entry, nil
	}

	if !*destReady {
		if err = os.MkdirAll(dest, 0o770); err != nil {
			return entry, eris.Wrapf(err, "failed to create %s", dest)
		}
		*destReady = true
	}

	logger.Debug().
		Str("task", "shaders").
		Str("path", dest).
		Msgf("copying %s to %s", src.ArtifactName(), dest)

	copied, err := MoveArtifact(src.Artifact(), dest)
	if err != nil {
		entry.Error = eris.ToString(err, false)
		return entry, err
	}

	entry.Artifact = copied
	return entry, nil
}

// Clean removes artifacts from the destination that no longer have a source. It fails with
// ErrNoSources instead of removing anything if the checkout has no shaders at all.
func (pl *Pipeline) Clean(ctx context.Context) ([]string, error) {
	p, err := platform.Resolve(pl.Platform)
	if err != nil {
		return nil, err
	}

	sources, err := Discover(pl.Root, pl.Layout)
	if err != nil {
		return nil, eris.Wrap(err, "failed to discover shaders")
	}

	dest := pl.Destination(p)
	// without sources every artifact would look stale; that's almost always a wrong root
	if len(sources) == 0 {
		return nil, eris.Wrapf(ErrNoSources, "refusing to clean %s", dest)
	}

	var removed []string
	if pl.DryRun {
		removed, err = Stale(dest, sources)
	} else {
		removed, err = RemoveStale(dest, sources)
	}
	if err != nil {
		return nil, err
	}

	verb := "removed"
	if pl.DryRun {
		verb = "would remove"
	}

	for _, item := range removed {
		buildlog.Log(ctx).Info().
			Str("task", "clean").
			Str("path", item).
			Msgf("%s %s", verb, item)
	}

	return removed, nil
}
