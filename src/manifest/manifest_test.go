package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestResolve_PyprojectTOML(t *testing.T) {
	path := writeManifest(t, "pyproject.toml", `[project]
name = "letta"
version = "0.9.3"
description = "an agent server"
`)

	v, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Raw != "0.9.3" {
		t.Fatalf("expected 0.9.3, got %q", v.Raw)
	}
	if !v.Semver || v.Major != 0 || v.Minor != 9 || v.Patch != 3 {
		t.Fatalf("expected semver 0.9.3, got %+v", v)
	}
}

func TestResolve_CargoTOML(t *testing.T) {
	path := writeManifest(t, "Cargo.toml", `[package]
name = "svc"
version = "2.1.0"
edition = "2021"
`)

	v, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Raw != "2.1.0" {
		t.Fatalf("expected 2.1.0, got %q", v.Raw)
	}
}

func TestResolve_LineFallback(t *testing.T) {
	// Not a .toml file — resolved by line matching. The first matching
	// line wins.
	path := writeManifest(t, "project.cfg", `name = "svc"
version = "1.2.3"
version = "9.9.9"
`)

	v, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Raw != "1.2.3" {
		t.Fatalf("expected first match 1.2.3, got %q", v.Raw)
	}
}

func TestResolve_NoVersion(t *testing.T) {
	path := writeManifest(t, "pyproject.toml", `[project]
name = "svc"
`)

	_, err := Resolve(path)
	if err == nil {
		t.Fatal("expected error for manifest without version")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if pe.Path != path {
		t.Fatalf("ParseError.Path = %q, want %q", pe.Path, path)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	path := writeManifest(t, "pyproject.toml", `[project]
version = "0.9.3"
`)

	first, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve (again): %v", err)
	}
	if first.Raw != second.Raw {
		t.Fatalf("resolution not idempotent: %q vs %q", first.Raw, second.Raw)
	}
}

func TestResolve_NonSemver(t *testing.T) {
	path := writeManifest(t, "app.cfg", `version = "snapshot-build"
`)

	v, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Raw != "snapshot-build" {
		t.Fatalf("expected raw passthrough, got %q", v.Raw)
	}
	if v.Semver {
		t.Fatal("expected Semver=false for non-semver version")
	}
}
