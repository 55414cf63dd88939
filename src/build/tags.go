package build

import (
	"fmt"
	"strings"

	"gitlab.prplanit.com/precisionplanit/castoff/src/manifest"
)

// ResolveTags expands tag templates against the manifest version.
//
// Supported templates:
//
//	{version}        → "0.9.3"
//	{major}          → "0"
//	{minor}          → "9"
//	{patch}          → "3"
//	{major}.{minor}  → "0.9"
//	latest           → "latest"   (literal passthrough)
func ResolveTags(templates []string, v *manifest.Version) []string {
	if v == nil {
		return templates
	}

	tags := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		tag := tmpl
		tag = strings.ReplaceAll(tag, "{version}", v.Raw)
		tag = strings.ReplaceAll(tag, "{major}", fmt.Sprintf("%d", v.Major))
		tag = strings.ReplaceAll(tag, "{minor}", fmt.Sprintf("%d", v.Minor))
		tag = strings.ReplaceAll(tag, "{patch}", fmt.Sprintf("%d", v.Patch))
		tags = append(tags, tag)
	}
	return tags
}

// Ref composes a fully qualified image reference.
func Ref(registryURL, path, tag string) string {
	return fmt.Sprintf("%s/%s:%s", registryURL, path, tag)
}
