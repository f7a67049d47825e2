package shaders

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry records what happened to a single source file
type Entry struct {
	Source   string `yaml:"source"`
	Command  string `yaml:"command"`
	ExitCode int    `yaml:"exit_code"`
	Output   string `yaml:"output,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	// Artifact is the destination path of the copied artifact
	Artifact string `yaml:"artifact,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Failed reports whether this entry didn't end with a copied artifact
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Report summarizes a pipeline run
type Report struct {
	Platform    string  `yaml:"platform"`
	Revision    int     `yaml:"revision"`
	Destination string  `yaml:"destination"`
	DryRun      bool    `yaml:"dry_run,omitempty"`
	Entries     []Entry `yaml:"entries"`
}

// Failed returns all entries that failed
func (r *Report) Failed() []Entry {
	result := []Entry{}
	for _, entry := range r.Entries {
		if entry.Failed() {
			result = append(result, entry)
		}
	}

	return result
}

// Artifacts returns the destination paths of all copied artifacts
func (r *Report) Artifacts() []string {
	result := []string{}
	for _, entry := range r.Entries {
		if entry.Artifact != "" {
			result = append(result, entry.Artifact)
		}
	}

	return result
}

// WriteYAML stores the report at path
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "failed to encode report")
	}

	err = os.WriteFile(path, data, 0o660)
	if err != nil {
		return eris.Wrapf(err, "failed to write to %s", path)
	}

	return nil
}
