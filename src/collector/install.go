package collector

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"

	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
)

// InstallError reports a failed collector installation.
type InstallError struct {
	URL string
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installing collector from %s: %v", e.URL, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Installer fetches and unpacks the collector release tarball.
type Installer struct {
	// Client is the HTTP client for downloads; tests substitute one backed
	// by httptest.
	Client *http.Client
}

// NewInstaller returns an installer using the default HTTP client.
func NewInstaller() *Installer {
	return &Installer{Client: http.DefaultClient}
}

// EnsureInstalled makes the collector binary available and returns its
// path. Idempotent: when the binary already exists it returns immediately
// with zero network activity. Otherwise it downloads the release tarball,
// extracts the binary, sets 0755, and moves it into place atomically.
func (ins *Installer) EnsureInstalled(ctx context.Context, cfg config.CollectorConfig) (string, error) {
	binPath := filepath.Join(cfg.InstallDir, cfg.Binary)
	if _, err := os.Stat(binPath); err == nil {
		return binPath, nil
	}

	url := resolveURL(cfg)

	if err := os.MkdirAll(cfg.InstallDir, 0o755); err != nil {
		return "", &InstallError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &InstallError{URL: url, Err: err}
	}

	resp, err := ins.Client.Do(req)
	if err != nil {
		return "", &InstallError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &InstallError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := ins.extract(resp.Body, cfg.Binary, binPath); err != nil {
		return "", &InstallError{URL: url, Err: err}
	}

	return binPath, nil
}

// extract streams the gzipped tarball and writes the named member next to
// its final path, then renames so a crashed install never leaves a
// half-written executable behind.
func (ins *Installer) extract(r io.Reader, member, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("archive has no %q member", member)
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != member {
			continue
		}

		tmp := dest + ".partial"
		f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("extracting %s: %w", member, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(tmp)
			return err
		}
		if err := os.Chmod(tmp, 0o755); err != nil {
			os.Remove(tmp)
			return err
		}
		return os.Rename(tmp, dest)
	}
}

// resolveURL fills the download URL template for the current platform.
func resolveURL(cfg config.CollectorConfig) string {
	url := cfg.DownloadURL
	url = strings.ReplaceAll(url, "{version}", cfg.Version)
	url = strings.ReplaceAll(url, "{os}", runtime.GOOS)
	url = strings.ReplaceAll(url, "{arch}", runtime.GOARCH)
	return url
}
