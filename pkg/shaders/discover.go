package shaders

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/sge-engine/sgetool/pkg/workspace"
)

// ArtifactExt is appended to a source file name to get the compiled file's name
const ArtifactExt = ".spv"

// ErrNoSources is returned by operations that make no sense without any shader sources
var ErrNoSources = eris.New("no shader sources found")

// Source is a single shader source file
type Source struct {
	// Path is the absolute path of the file
	Path string
	// Rel is Path relative to the checkout root, using forward slashes
	Rel string
}

// Name returns the file name of the source
func (s Source) Name() string {
	return filepath.Base(s.Path)
}

// Artifact returns the path the compiler writes the artifact to
func (s Source) Artifact() string {
	return s.Path + ArtifactExt
}

// ArtifactName returns the file name of the artifact
func (s Source) ArtifactName() string {
	return s.Name() + ArtifactExt
}

// Patterns returns the glob patterns matching all shader sources of a checkout, in
// compilation order. Examples only contain compute shaders.
func Patterns(layout workspace.Layout) []string {
	res := filepath.ToSlash(layout.Resources)
	examples := filepath.ToSlash(layout.Examples)

	return []string{
		res + "/*.vert",
		res + "/*.frag",
		res + "/*.comp",
		examples + "/*/*.comp",
	}
}

// Discover returns all shader sources below root. Paths are built from root directly;
// the working directory is never consulted or changed.
func Discover(root string, layout workspace.Layout) ([]Source, error) {
	matches, err := resolvePatterns(root, Patterns(layout))
	if err != nil {
		return nil, err
	}

	result := make([]Source, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		match = path.Clean(filepath.ToSlash(match))
		if seen[match] || isHidden(match) {
			continue
		}
		seen[match] = true

		full := filepath.Join(root, filepath.FromSlash(match))
		info, err := os.Stat(full)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to check %s", full)
		}

		if info.IsDir() {
			continue
		}

		result = append(result, Source{Path: full, Rel: match})
	}

	return result, nil
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}

	return false
}

func shellReadDir(dir string) ([]os.FileInfo, error) {
	infos, err := ioutil.ReadDir(dir)
	if err != nil && eris.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	return infos, err
}

// resolvePatterns expands the given patterns relative to root. The expander resolves relative
// patterns against $PWD so it has to point at root; the process' working directory is irrelevant.
func resolvePatterns(root string, patterns []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve %s", root)
	}

	result := []string{}
	cfg := expand.Config{
		Env:     expand.ListEnviron("PWD=" + absRoot),
		ReadDir: shellReadDir,
	}

	parser := syntax.NewParser()
	for _, item := range patterns {
		words := make([]*syntax.Word, 0)
		err = parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse pattern %s", item)
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", item)
		}

		for _, match := range matches {
			// If a pattern didn't match anything, it's returned as a result. Skip those results.
			if !strings.Contains(match, "*") {
				result = append(result, match)
			}
		}
	}

	return result, nil
}
