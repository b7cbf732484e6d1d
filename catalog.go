package reqmerge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reqmerge/go-reqmerge/version"
)

// Catalog provides the set of versions known to exist for a package.
// It is the external collaborator the resolver consults per package.
//
// An empty result is a valid, non-error answer meaning the package is
// unknown or has no published versions. The resolver additionally treats
// lookup errors as empty results, so implementations may return honest
// transport errors without aborting a resolution.
//
// Implementations must be safe for concurrent use: the resolver invokes
// Versions from multiple goroutines.
type Catalog interface {
	Versions(ctx context.Context, name string) ([]version.Version, error)
}

// StaticCatalog is an in-memory catalog keyed by lowercased package name.
// It backs tests and replayable resolutions with fixed version data.
type StaticCatalog map[string][]string

// Versions returns the parsed versions recorded for the package.
// Entries that fail version parsing are skipped.
func (c StaticCatalog) Versions(_ context.Context, name string) ([]version.Version, error) {
	var out []version.Version
	for _, s := range c[strings.ToLower(name)] {
		v, err := version.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// LocalCatalog serves version data from a local directory, enabling
// airgap/offline resolutions with pre-downloaded index data.
//
// The directory holds one JSON file per package:
//
//	{root}/{name}.json  ->  {"versions": ["1.0", "1.1", ...]}
type LocalCatalog struct {
	rootPath string
	cache    sync.Map // map[string][]version.Version keyed by package name
}

// NewLocalCatalog creates a catalog backed by a local directory.
func NewLocalCatalog(rootPath string) *LocalCatalog {
	return &LocalCatalog{rootPath: filepath.Clean(rootPath)}
}

// localEntry is the on-disk document for one package.
type localEntry struct {
	Versions []string `json:"versions"`
}

// Versions reads the package's JSON file. A missing file means the package
// is unknown and yields an empty result, not an error. Entries that fail
// version parsing are skipped.
func (c *LocalCatalog) Versions(_ context.Context, name string) ([]version.Version, error) {
	key := strings.ToLower(name)
	if cached, ok := c.cache.Load(key); ok {
		return cached.([]version.Version), nil
	}

	data, err := os.ReadFile(filepath.Join(c.rootPath, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog entry for %s: %w", key, err)
	}

	var entry localEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode catalog entry for %s: %w", key, err)
	}

	var out []version.Version
	for _, s := range entry.Versions {
		v, err := version.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, v)
	}

	c.cache.Store(key, out)
	return out, nil
}
