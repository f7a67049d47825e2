package shaders

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sge-engine/sgetool/pkg/platform"
)

// Revision selects the argument layout passed to the shader compiler.
// The layout changed twice over the life of the engine's build scripts and older
// checkouts still rely on the earlier ones.
type Revision int

const (
	// RevisionPositional passes no platform macro
	RevisionPositional Revision = iota + 1
	// RevisionDefineMacro passes the macro with --define-macro
	RevisionDefineMacro
	// RevisionShortDefine passes the macro with -D and puts the input last
	RevisionShortDefine

	// LatestRevision is used when nothing else is configured
	LatestRevision = RevisionShortDefine
)

// ParseRevision converts a number into a Revision
func ParseRevision(value int) (Revision, error) {
	rev := Revision(value)
	if rev < RevisionPositional || rev > LatestRevision {
		return 0, eris.Errorf("unknown compiler revision %d", value)
	}

	return rev, nil
}

func (r Revision) String() string {
	return strconv.Itoa(int(r))
}

// UsesMacro reports whether this revision passes the platform macro
func (r Revision) UsesMacro() bool {
	return r != RevisionPositional
}

// CompilerArgs builds the compiler arguments that turn input into output
func (r Revision) CompilerArgs(p platform.Platform, targetEnv, input, output string) ([]string, error) {
	switch r {
	case RevisionPositional:
		return []string{"--target-env", targetEnv, "-V", input, "-o", output}, nil
	case RevisionDefineMacro:
		return []string{"--define-macro", p.MacroDefinition(), "--target-env", targetEnv, "-V", input, "-o", output}, nil
	case RevisionShortDefine:
		return []string{"-V", "-D" + p.MacroDefinition(), "--target-env", targetEnv, "-o", output, input}, nil
	}

	return nil, eris.Errorf("unknown compiler revision %d", int(r))
}
