// Package guard scans the build context for leaked credentials before any
// image is built. A token baked into a layer outlives every rotation, so a
// hit aborts the pipeline.
package guard

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// maxFileSize caps what the detector reads; anything larger is almost
// certainly a binary artifact, not source.
const maxFileSize = 1 << 20

// LeakError aborts a pipeline when the build context contains credentials.
type LeakError struct {
	Findings []Finding
}

func (e *LeakError) Error() string {
	if len(e.Findings) == 1 {
		f := e.Findings[0]
		return fmt.Sprintf("guard: credential in build context: %s:%d (%s)", f.File, f.Line, f.RuleID)
	}
	return fmt.Sprintf("guard: %d credential(s) in build context, first at %s:%d (%s)",
		len(e.Findings), e.Findings[0].File, e.Findings[0].Line, e.Findings[0].RuleID)
}

// Finding is a single credential hit in the build context.
type Finding struct {
	File        string
	Line        int
	RuleID      string
	Description string
}

// Scanner wraps a gitleaks detector with context-aware walking.
type Scanner struct {
	detector *detect.Detector
	ignore   []string
}

// New creates a scanner with the default gitleaks ruleset.
// ignore entries are path prefixes relative to the scan root.
func New(ignore []string) (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	return &Scanner{detector: d, ignore: ignore}, nil
}

// Scan walks root and returns every credential finding.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.ignored(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil || info.Size() > maxFileSize {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		for _, h := range s.detector.DetectBytes(data) {
			findings = append(findings, Finding{
				File:        rel,
				Line:        h.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      h.RuleID,
				Description: h.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return findings, nil
}

func (s *Scanner) ignored(rel string) bool {
	for _, prefix := range s.ignore {
		prefix = filepath.ToSlash(prefix)
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
