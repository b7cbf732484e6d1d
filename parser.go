package reqmerge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/reqmerge/go-reqmerge/specifier"
)

// requirementLine matches a requirement: a package name followed by an
// optional specifier clause. Lines that do not yield a name are skipped,
// which keeps the parser tolerant of annotation or malformed lines.
var requirementLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)(.*)$`)

// ParseManifestFile reads and parses a manifest file from disk.
//
// Files ending in .toml are treated as project descriptors and flattened
// into requirements text before parsing; .txt and extensionless files are
// parsed as requirements text directly.
func ParseManifestFile(filename string) (Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	content := string(data)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		content, err = FlattenPyProject(content)
		if err != nil {
			return nil, fmt.Errorf("flatten %s: %w", filepath.Base(filename), err)
		}
	case ".txt", "", ".in":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}

	return ParseManifest(content)
}

// ParseManifest parses line-oriented requirements text into a Manifest.
//
// Each line is trimmed; blank lines and #-comments are skipped. A line
// must be a package name (letters, digits, underscore, hyphen) followed by
// an optional specifier clause. Names are lowercased, so package identity
// is case-insensitive. Later duplicate lines overwrite earlier ones.
//
// An invalid specifier clause fails the whole parse with a *SyntaxError
// naming the package and the raw clause; no partial manifest is returned.
func ParseManifest(content string) (Manifest, error) {
	manifest := make(Manifest)

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		match := requirementLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		name := strings.ToLower(match[1])
		clause := strings.TrimSpace(match[2])
		if clause == "" {
			manifest[name] = nil
			continue
		}

		set, err := specifier.Parse(clause)
		if err != nil {
			return nil, &SyntaxError{Package: name, Clause: clause, Err: err}
		}
		manifest[name] = set
	}

	return manifest, nil
}
