package reqmerge

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// pyProject models the subset of a pyproject.toml document this library
// reads: the PEP 621 project dependency list.
type pyProject struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
}

// FlattenPyProject converts pyproject.toml content into line-oriented
// requirements text, one dependency per line.
//
// This is the format-adapter boundary: the core parser only ever sees
// requirements text, never TOML. Returns ErrNoDependencies when the
// document has no [project] dependencies entry.
func FlattenPyProject(content string) (string, error) {
	var doc pyProject
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return "", fmt.Errorf("parse pyproject.toml: %w", err)
	}

	if len(doc.Project.Dependencies) == 0 {
		return "", ErrNoDependencies
	}

	return strings.Join(doc.Project.Dependencies, "\n") + "\n", nil
}
