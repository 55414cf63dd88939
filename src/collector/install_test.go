package collector

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
)

// releaseTarball builds a gzipped tarball containing the given members.
func releaseTarball(t *testing.T, members map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, data := range members {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write(data); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// countingTransport counts requests so idempotence tests can assert zero
// network activity.
type countingTransport struct {
	requests atomic.Int64
	inner    http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests.Add(1)
	return c.inner.RoundTrip(req)
}

func testInstallConfig(t *testing.T, url string) config.CollectorConfig {
	t.Helper()
	cfg := config.DefaultCollectorConfig()
	cfg.InstallDir = filepath.Join(t.TempDir(), "collector")
	cfg.DownloadURL = url
	return cfg
}

func TestEnsureInstalled(t *testing.T) {
	tarball := releaseTarball(t, map[string][]byte{
		"otelcol-contrib": []byte("#!/bin/sh\necho collector\n"),
		"LICENSE":         []byte("Apache-2.0"),
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tarball)
	}))
	defer srv.Close()

	cfg := testInstallConfig(t, srv.URL+"/otelcol_{version}_{os}_{arch}.tar.gz")

	ins := &Installer{Client: srv.Client()}
	path, err := ins.EnsureInstalled(context.Background(), cfg)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("binary mode = %v, want 0755", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}
	if !bytes.Contains(data, []byte("echo collector")) {
		t.Fatal("installed binary has wrong content")
	}

	// No .partial debris.
	if _, err := os.Stat(path + ".partial"); !os.IsNotExist(err) {
		t.Fatal("partial file left behind")
	}
}

func TestEnsureInstalled_Idempotent(t *testing.T) {
	tarball := releaseTarball(t, map[string][]byte{
		"otelcol-contrib": []byte("bin"),
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tarball)
	}))
	defer srv.Close()

	cfg := testInstallConfig(t, srv.URL+"/otelcol.tar.gz")

	counter := &countingTransport{inner: srv.Client().Transport}
	ins := &Installer{Client: &http.Client{Transport: counter}}

	if _, err := ins.EnsureInstalled(context.Background(), cfg); err != nil {
		t.Fatalf("first install: %v", err)
	}
	if got := counter.requests.Load(); got != 1 {
		t.Fatalf("first install made %d requests, want 1", got)
	}

	// Second call: binary exists, zero network calls.
	if _, err := ins.EnsureInstalled(context.Background(), cfg); err != nil {
		t.Fatalf("second install: %v", err)
	}
	if got := counter.requests.Load(); got != 1 {
		t.Fatalf("re-install made network calls: %d total requests", got)
	}
}

func TestEnsureInstalled_MissingMember(t *testing.T) {
	tarball := releaseTarball(t, map[string][]byte{
		"README": []byte("no binary here"),
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tarball)
	}))
	defer srv.Close()

	cfg := testInstallConfig(t, srv.URL+"/otelcol.tar.gz")

	ins := &Installer{Client: srv.Client()}
	_, err := ins.EnsureInstalled(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for tarball without the binary")
	}
	if _, ok := err.(*InstallError); !ok {
		t.Fatalf("expected *InstallError, got %T: %v", err, err)
	}
}

func TestEnsureInstalled_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testInstallConfig(t, srv.URL+"/otelcol.tar.gz")

	ins := &Installer{Client: srv.Client()}
	_, err := ins.EnsureInstalled(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}
