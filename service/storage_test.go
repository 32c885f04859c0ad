package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archiver"
)

func TestFetchLocalFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sample := filepath.Join(dir, "s1_sample_1.tif")
	if err := os.WriteFile(sample, []byte("tiff"), 0644); err != nil {
		t.Fatal(err)
	}

	local, err := FetchFile(ctx, sample, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if local != sample {
		t.Errorf("expected %s, got %s", sample, local)
	}

	if local, err = FetchFile(ctx, "file://"+sample, t.TempDir()); err != nil || local != sample {
		t.Errorf("file://: expected %s, got %s (%v)", sample, local, err)
	}

	if _, err := FetchFile(ctx, filepath.Join(dir, "missing.tif"), t.TempDir()); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFetchZip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sample := filepath.Join(dir, "s1_sample_1.tif")
	if err := os.WriteFile(sample, []byte("tiff"), 0644); err != nil {
		t.Fatal(err)
	}
	zip := filepath.Join(dir, "sample.zip")
	if err := archiver.Archive([]string{sample}, zip); err != nil {
		t.Fatal(err)
	}

	local, err := FetchFile(ctx, zip, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(local) != "s1_sample_1.tif" {
		t.Errorf("unexpected raster %s", local)
	}
	if b, _ := os.ReadFile(local); string(b) != "tiff" {
		t.Errorf("unexpected content %s", b)
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/s1_sample_1.tif" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("tiff"))
	}))
	defer srv.Close()
	ctx := context.Background()

	local, err := FetchFile(ctx, srv.URL+"/data/s1_sample_1.tif", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(local); string(b) != "tiff" {
		t.Errorf("unexpected content %s", b)
	}

	if _, err := FetchFile(ctx, srv.URL+"/data/missing.tif", t.TempDir()); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestExt(t *testing.T) {
	if GetExt("data/s1_sample_1.TIF") != ExtensionGTiff {
		t.Error("expected tif")
	}
	if GetExt("data/sample") != NoExtension {
		t.Error("expected no extension")
	}
	if ContentType("a.tiff") != "image/tiff" {
		t.Error("expected image/tiff")
	}
}
