package shaders

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrArtifactMissing is returned when the compiler reported success but produced no file
var ErrArtifactMissing = eris.New("compiled artifact is missing")

// partialExt marks copies that haven't been moved into place yet
const partialExt = ".tmp"

func writePartial(tmp string, in io.Reader) error {
	out, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", tmp)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return eris.Wrapf(err, "failed to write %s", tmp)
	}

	if err = out.Close(); err != nil {
		os.Remove(tmp)
		return eris.Wrapf(err, "failed to write %s", tmp)
	}

	return nil
}

// MoveArtifact copies the artifact at src into destDir, replacing any previous copy, and
// deletes src afterwards. It returns the path of the copy.
func MoveArtifact(src, destDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(ErrArtifactMissing, "%s does not exist", src)
		}
		return "", eris.Wrapf(err, "failed to open %s", src)
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	tmp := dest + partialExt
	err = writePartial(tmp, in)
	// src has to be closed before it can be deleted on Windows
	in.Close()
	if err != nil {
		return "", eris.Wrapf(err, "failed to copy %s", src)
	}

	// Windows refuses to rename onto an existing file
	if err = os.Remove(dest); err != nil && !eris.Is(err, os.ErrNotExist) {
		os.Remove(tmp)
		return "", eris.Wrapf(err, "failed to replace %s", dest)
	}

	if err = os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", eris.Wrapf(err, "failed to move %s to %s", tmp, dest)
	}

	if err = os.Remove(src); err != nil {
		return dest, eris.Wrapf(err, "failed to delete %s", src)
	}

	return dest, nil
}

// Stale returns the artifacts in destDir that don't belong to any of the given sources.
// Partial copies left behind by an interrupted run are always stale.
func Stale(destDir string, sources []Source) ([]string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failed to list %s", destDir)
	}

	known := make(map[string]bool, len(sources))
	for _, src := range sources {
		known[src.ArtifactName()] = true
	}

	result := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}

		partial := strings.HasSuffix(name, ArtifactExt+partialExt)
		if !partial && (!strings.HasSuffix(name, ArtifactExt) || known[name]) {
			continue
		}

		result = append(result, filepath.Join(destDir, name))
	}

	return result, nil
}

// RemoveStale deletes all artifacts returned by Stale and returns their paths
func RemoveStale(destDir string, sources []Source) ([]string, error) {
	stale, err := Stale(destDir, sources)
	if err != nil {
		return nil, err
	}

	for _, item := range stale {
		if err := os.Remove(item); err != nil {
			return nil, eris.Wrapf(err, "could not delete %s", item)
		}
	}

	return stale, nil
}
