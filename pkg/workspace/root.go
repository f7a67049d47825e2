// Package workspace locates the SGE checkout the tools operate on.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ConfigName is the optional per-checkout config file, also used as root marker
const ConfigName = "sgetool.toml"

// Layout contains the well known directories of a checkout, relative to its root
type Layout struct {
	CMake     string
	Projects  string
	Resources string
	Examples  string
}

// DefaultLayout matches the directory structure of the SGE repository
var DefaultLayout = Layout{
	CMake:     "cmake",
	Projects:  "projects",
	Resources: "res",
	Examples:  "examples",
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if eris.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, eris.Wrapf(err, "failed to check %s", path)
}

func isRoot(dir string) (bool, error) {
	for _, marker := range []string{ConfigName, ".git"} {
		found, err := exists(filepath.Join(dir, marker))
		if err != nil || found {
			return found, err
		}
	}

	hasCMake, err := exists(filepath.Join(dir, DefaultLayout.CMake))
	if err != nil || !hasCMake {
		return false, err
	}

	return exists(filepath.Join(dir, DefaultLayout.Resources))
}

// FindRoot walks up from start until it finds a directory that looks like an SGE checkout
func FindRoot(start string) (string, error) {
	path, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", start)
	}

	for {
		found, err := isRoot(path)
		if err != nil {
			return "", eris.Wrap(err, "error ocurred while searching for project root")
		}

		if found {
			return path, nil
		}

		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	return "", eris.Errorf("project root not found above %s", start)
}

// ResolveRoot returns override as an absolute path or searches upwards from the working directory
func ResolveRoot(override string) (string, error) {
	if override != "" {
		root, err := filepath.Abs(override)
		if err != nil {
			return "", eris.Wrapf(err, "failed to resolve %s", override)
		}

		return root, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "failed to retrieve the current working directory")
	}

	return FindRoot(wd)
}
