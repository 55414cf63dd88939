// Package manifest resolves the release version from a project manifest.
// TOML manifests (pyproject.toml, Cargo.toml) are parsed structurally;
// anything else falls back to matching the first version = "X" line.
// Resolution is read-only and idempotent — the same manifest always yields
// the same version.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	toml "github.com/pelletier/go-toml/v2"
)

// ParseError reports a manifest that yields no version.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}

// Version is the resolved release version. Raw is always non-empty;
// the numeric fields are zero when the version is not semver.
type Version struct {
	Raw    string
	Major  uint64
	Minor  uint64
	Patch  uint64
	Semver bool
}

var versionLineRe = regexp.MustCompile(`^\s*version\s*=\s*"([^"]+)"`)

// Resolve reads the manifest at path and extracts the version string.
// Returns a ParseError when the file has no version assignment.
func Resolve(path string) (*Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	raw := ""
	if isTOML(path) {
		raw = tomlVersion(data)
	}
	if raw == "" {
		raw = lineVersion(data)
	}
	if raw == "" {
		return nil, &ParseError{Path: path, Reason: `no version = "X" assignment found`}
	}

	v := &Version{Raw: raw}
	if sv, err := semver.NewVersion(raw); err == nil {
		v.Major = sv.Major()
		v.Minor = sv.Minor()
		v.Patch = sv.Patch()
		v.Semver = true
	}
	return v, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// tomlVersion looks for a version key in the conventional tables:
// [project] (PEP 621), [package] (Cargo), [tool.poetry], then top level.
// Returns "" if the document doesn't decode or carries no version.
func tomlVersion(data []byte) string {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return ""
	}

	tables := [][]string{
		{"project", "version"},
		{"package", "version"},
		{"tool", "poetry", "version"},
		{"version"},
	}
	for _, keys := range tables {
		if s := lookupString(doc, keys); s != "" {
			return s
		}
	}
	return ""
}

func lookupString(doc map[string]any, keys []string) string {
	cur := any(doc)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = m[k]
		if !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}

// lineVersion returns the capture of the first line matching version = "X".
func lineVersion(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if m := versionLineRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
