// Package platform maps host operating systems to the settings the build helpers need for them.
package platform

import (
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsupported is returned for operating systems without an entry in the platform table
var ErrUnsupported = eris.New("unsupported platform")

// Platform describes everything that differs between the supported host systems
type Platform struct {
	// Name is the short name used in logs and on the command line
	Name string
	// GOOS is the runtime.GOOS value this entry applies to
	GOOS string
	// Generator is passed to cmake's -G flag. Empty means cmake picks its default.
	Generator string
	// ArtifactDir is where compiled shaders go, relative to the generated project directory
	ArtifactDir string
	// Macro is the preprocessor symbol that selects platform specific shader code
	Macro string
}

var table = []Platform{
	{
		Name:        "windows",
		GOOS:        "windows",
		Generator:   "Visual Studio 16 2019",
		ArtifactDir: ".",
		Macro:       "TARGET_WIN32",
	},
	{
		Name:        "linux",
		GOOS:        "linux",
		ArtifactDir: ".",
		Macro:       "TARGET_LINUX",
	},
	{
		Name:        "macosx",
		GOOS:        "darwin",
		Generator:   "Xcode",
		ArtifactDir: "Debug",
		Macro:       "TARGET_MACOSX",
	},
}

// All returns a copy of the platform table
func All() []Platform {
	result := make([]Platform, len(table))
	copy(result, table)
	return result
}

// Lookup finds the entry for the given GOOS value or platform name
func Lookup(name string) (Platform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range table {
		if p.GOOS == name || p.Name == name {
			return p, nil
		}
	}

	return Platform{}, eris.Wrapf(ErrUnsupported, "no platform entry for %q", name)
}

// Host returns the entry for the running system
func Host() (Platform, error) {
	return Lookup(runtime.GOOS)
}

// Resolve returns the entry for override or the host platform if override is empty
func Resolve(override string) (Platform, error) {
	if override == "" {
		return Host()
	}

	return Lookup(override)
}

// GeneratorArgs returns the cmake arguments selecting the generator
func (p Platform) GeneratorArgs() []string {
	if p.Generator == "" {
		return nil
	}

	return []string{"-G", p.Generator}
}

// MacroDefinition returns the macro in NAME=1 form
func (p Platform) MacroDefinition() string {
	if p.Macro == "" {
		return ""
	}

	return p.Macro + "=1"
}

func (p Platform) String() string {
	return p.Name
}
