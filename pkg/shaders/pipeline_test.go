package shaders

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sge-engine/sgetool/pkg/execx"
	"github.com/sge-engine/sgetool/pkg/platform"
	"github.com/sge-engine/sgetool/pkg/workspace"
)

// fakeCompiler records invocations and writes a fake artifact for each of them
type fakeCompiler struct {
	calls []execx.Invocation
	// fail maps input file names to exit codes
	fail map[string]int
	// silent lists inputs that "succeed" without writing an artifact
	silent map[string]bool
}

func outputArg(args []string) (string, string) {
	var output string
	for idx, arg := range args {
		if arg == "-o" && idx+1 < len(args) {
			output = args[idx+1]
		}
	}

	// the input is the argument ending in a shader extension
	for _, arg := range args {
		switch filepath.Ext(arg) {
		case ".vert", ".frag", ".comp":
			return arg, output
		}
	}

	return "", output
}

func (f *fakeCompiler) Run(ctx context.Context, inv execx.Invocation) (*execx.Result, error) {
	f.calls = append(f.calls, inv)
	input, output := outputArg(inv.Args)

	if code, ok := f.fail[input]; ok {
		return &execx.Result{Invocation: inv, ExitCode: code, Stderr: "ERROR: " + input}, nil
	}

	if !f.silent[input] {
		content := []byte("SPIRV:" + input)
		if err := os.WriteFile(filepath.Join(inv.Dir, output), content, 0o660); err != nil {
			return nil, err
		}
	}

	return &execx.Result{Invocation: inv}, nil
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
		require.NoError(t, os.WriteFile(path, []byte("#version 450\n"), 0o660))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func newPipeline(root string, runner execx.Runner, goos string) *Pipeline {
	return &Pipeline{
		Runner:    runner,
		Root:      root,
		Layout:    workspace.DefaultLayout,
		Platform:  goos,
		Revision:  RevisionShortDefine,
		Compiler:  "glslangValidator",
		TargetEnv: "vulkan1.0",
		Policy:    Abort,
	}
}

func TestPipelineLinuxScenario(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "res/b.frag")

	compiler := &fakeCompiler{}
	report, err := newPipeline(root, compiler, "linux").Run(context.Background())
	require.NoError(t, err)

	require.Len(t, compiler.calls, 2)
	for _, call := range compiler.calls {
		assert.Contains(t, call.Args, "-DTARGET_LINUX=1")
		assert.Equal(t, filepath.Join(root, "res"), call.Dir)
	}

	dest := filepath.Join(root, "projects")
	assert.Equal(t, dest, report.Destination)
	assert.Equal(t, []string{"a.vert.spv", "b.frag.spv"}, listDir(t, dest))

	// copy-then-delete: nothing is left next to the sources
	assert.Equal(t, []string{"a.vert", "b.frag"}, listDir(t, filepath.Join(root, "res")))
	assert.Empty(t, report.Failed())
	assert.Len(t, report.Artifacts(), 2)
}

func TestPipelineFromOtherDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "res/b.frag")
	inDir(t, t.TempDir())

	compiler := &fakeCompiler{}
	report, err := newPipeline(root, compiler, "linux").Run(context.Background())
	require.NoError(t, err)

	require.Len(t, compiler.calls, 2)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, []string{"a.vert.spv", "b.frag.spv"}, listDir(t, filepath.Join(root, "projects")))
}

func TestPipelineDarwinDestination(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.comp")

	compiler := &fakeCompiler{}
	_, err := newPipeline(root, compiler, "darwin").Run(context.Background())
	require.NoError(t, err)

	require.Len(t, compiler.calls, 1)
	assert.Contains(t, compiler.calls[0].Args, "-DTARGET_MACOSX=1")
	assert.Equal(t, []string{"a.comp.spv"}, listDir(t, filepath.Join(root, "projects", "Debug")))
}

func TestPipelineOneInvocationPerSource(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"res/a.vert", "res/b.frag", "res/c.comp", "res/readme.txt",
		"examples/ex01_sinewaves/sinewaves.comp",
		"examples/ex02_juliaset/juliaset.comp",
		"examples/ex02_juliaset/ignored.vert",
	)

	compiler := &fakeCompiler{}
	report, err := newPipeline(root, compiler, "windows").Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, compiler.calls, 5)
	assert.Equal(t, []string{
		"a.vert.spv", "b.frag.spv", "c.comp.spv", "juliaset.comp.spv", "sinewaves.comp.spv",
	}, listDir(t, filepath.Join(root, "projects")))

	assert.Equal(t, filepath.Join(root, "examples", "ex01_sinewaves"), compiler.calls[3].Dir)
	assert.Len(t, report.Entries, 5)
}

func TestPipelineUnsupportedPlatform(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert")

	compiler := &fakeCompiler{}
	report, err := newPipeline(root, compiler, "plan9").Run(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, platform.ErrUnsupported))
	assert.Nil(t, report)
	assert.Empty(t, compiler.calls)

	_, statErr := os.Stat(filepath.Join(root, "projects"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "examples/ex00/x.comp")

	pl := newPipeline(root, &fakeCompiler{}, "linux")
	_, err := pl.Run(context.Background())
	require.NoError(t, err)
	first := listDir(t, filepath.Join(root, "projects"))

	pl.Runner = &fakeCompiler{}
	_, err = pl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, listDir(t, filepath.Join(root, "projects")))
	assert.Equal(t, []string{"a.vert.spv", "x.comp.spv"}, first)
}

func TestPipelineAbortsOnFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "res/b.frag")

	compiler := &fakeCompiler{fail: map[string]int{"a.vert": 2}}
	report, err := newPipeline(root, compiler, "linux").Run(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, execx.ErrFailed))

	assert.Len(t, compiler.calls, 1)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, 2, report.Entries[0].ExitCode)
	assert.Contains(t, report.Entries[0].Output, "ERROR: a.vert")
}

func TestPipelineContinuesOnFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "res/b.frag")

	compiler := &fakeCompiler{fail: map[string]int{"a.vert": 1}}
	pl := newPipeline(root, compiler, "linux")
	pl.Policy = Continue

	report, err := pl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 shaders failed: res/a.vert")

	assert.Len(t, compiler.calls, 2)
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, []string{"b.frag.spv"}, listDir(t, filepath.Join(root, "projects")))
}

func TestPipelineMissingArtifact(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert")

	compiler := &fakeCompiler{silent: map[string]bool{"a.vert": true}}
	_, err := newPipeline(root, compiler, "linux").Run(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrArtifactMissing))
}

func TestPipelineDryRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert")

	pl := newPipeline(root, execx.DryRunner{}, "linux")
	pl.DryRun = true

	report, err := pl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "glslangValidator -V -DTARGET_LINUX=1 --target-env vulkan1.0 -o a.vert.spv a.vert", report.Entries[0].Command)

	_, statErr := os.Stat(filepath.Join(root, "projects"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineNoSources(t *testing.T) {
	compiler := &fakeCompiler{}
	report, err := newPipeline(t.TempDir(), compiler, "linux").Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
	assert.Empty(t, compiler.calls)
}

func TestPipelineRevisionOne(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert")

	compiler := &fakeCompiler{}
	pl := newPipeline(root, compiler, "linux")
	pl.Revision = RevisionPositional

	_, err := pl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, compiler.calls, 1)
	assert.Equal(t, []string{"--target-env", "vulkan1.0", "-V", "a.vert", "-o", "a.vert.spv"}, compiler.calls[0].Args)
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "projects/a.vert.spv", "projects/old.frag.spv", "projects/keep.txt")

	pl := newPipeline(root, &fakeCompiler{}, "linux")
	pl.DryRun = true
	stale, err := pl.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "projects", "old.frag.spv")}, stale)
	assert.Len(t, listDir(t, filepath.Join(root, "projects")), 3)

	pl.DryRun = false
	_, err = pl.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.vert.spv", "keep.txt"}, listDir(t, filepath.Join(root, "projects")))
}

func TestCleanFromOtherDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "res/a.vert", "projects/a.vert.spv", "projects/gone.frag.spv")
	inDir(t, t.TempDir())

	removed, err := newPipeline(root, &fakeCompiler{}, "linux").Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "projects", "gone.frag.spv")}, removed)
	assert.Equal(t, []string{"a.vert.spv"}, listDir(t, filepath.Join(root, "projects")))
}

func TestCleanWithoutSources(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "projects/a.vert.spv")

	removed, err := newPipeline(root, &fakeCompiler{}, "linux").Clean(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoSources))
	assert.Empty(t, removed)
	assert.Equal(t, []string{"a.vert.spv"}, listDir(t, filepath.Join(root, "projects")))
}

func TestReportWriteYAML(t *testing.T) {
	report := &Report{
		Platform: "linux",
		Revision: 3,
		Entries:  []Entry{{Source: "res/a.vert", Command: "glslangValidator a.vert", ExitCode: 1, Error: "boom"}},
	}

	path := filepath.Join(t.TempDir(), "report.yml")
	require.NoError(t, report.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "platform: linux")
	assert.Contains(t, string(data), "source: res/a.vert")
	assert.Contains(t, string(data), "exit_code: 1")
}
