package reqmerge

import (
	"errors"
	"strings"
	"testing"
)

func TestFlattenPyProject(t *testing.T) {
	content := `
[project]
name = "demo"
version = "0.1.0"
dependencies = [
    "requests>=2.0,<3.0",
    "flask==1.0",
    "numpy",
]

[build-system]
requires = ["setuptools"]
`
	flattened, err := FlattenPyProject(content)
	if err != nil {
		t.Fatalf("FlattenPyProject: %v", err)
	}

	want := "requests>=2.0,<3.0\nflask==1.0\nnumpy\n"
	if flattened != want {
		t.Errorf("flattened = %q, want %q", flattened, want)
	}

	// The flattened text parses as a manifest.
	manifest, err := ParseManifest(flattened)
	if err != nil {
		t.Fatalf("ParseManifest(flattened): %v", err)
	}
	if len(manifest) != 3 {
		t.Errorf("len(manifest) = %d, want 3", len(manifest))
	}
}

func TestFlattenPyProject_NoDependencies(t *testing.T) {
	for _, content := range []string{
		"[project]\nname = \"demo\"\n",
		"[build-system]\nrequires = []\n",
	} {
		if _, err := FlattenPyProject(content); !errors.Is(err, ErrNoDependencies) {
			t.Errorf("FlattenPyProject(%q) error = %v, want ErrNoDependencies", content, err)
		}
	}
}

func TestFlattenPyProject_InvalidTOML(t *testing.T) {
	_, err := FlattenPyProject("[project\ndependencies = [")
	if err == nil {
		t.Fatal("expected TOML parse error")
	}
	if strings.Contains(err.Error(), "dependencies found") {
		t.Errorf("invalid TOML should not report missing dependencies: %v", err)
	}
}
