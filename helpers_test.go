// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-archivenav"
	"github.com/pierrec/lz4/v4"
)

// testFile is a file in a generated test archive. Names with a trailing slash are
// directories.
type testFile struct {
	name string
	data string
}

// testLogger discards all log output
var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// createTestFile writes data to path and returns the path.
func createTestFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("cannot create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		t.Fatalf("cannot write test file: %v", err)
	}
	return path
}

// zipBytes creates a zip archive in memory with files in the given order.
func zipBytes(t *testing.T, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("cannot add %s to zip: %v", f.name, err)
		}
		if strings.HasSuffix(f.name, "/") {
			continue
		}
		if _, err := w.Write([]byte(f.data)); err != nil {
			t.Fatalf("cannot write %s to zip: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("cannot close zip: %v", err)
	}
	return buf.Bytes()
}

// tarBytes creates a tar archive in memory with files in the given order.
func tarBytes(t *testing.T, format tar.Format, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Mode: 0640, Size: int64(len(f.data)), Typeflag: tar.TypeReg, Format: format}
		if strings.HasSuffix(f.name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0750
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("cannot add %s to tar: %v", f.name, err)
		}
		if _, err := tw.Write([]byte(f.data)); err != nil {
			t.Fatalf("cannot write %s to tar: %v", f.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("cannot close tar: %v", err)
	}
	return buf.Bytes()
}

// compressLZ4 compresses data with lz4.
func compressLZ4(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("cannot compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("cannot close lz4 writer: %v", err)
	}
	return buf.Bytes()
}

// createScenarioArchive creates archive.zip with readme.txt and nested.tar.lz4, which
// contains inner.txt.
func createScenarioArchive(t *testing.T, dir string) string {
	t.Helper()
	nested := compressLZ4(t, tarBytes(t, tar.FormatPAX, testFile{"inner.txt", "inner content"}))
	data := zipBytes(t,
		testFile{"readme.txt", "read me"},
		testFile{"nested.tar.lz4", string(nested)},
	)
	return createTestFile(t, filepath.Join(dir, "archive.zip"), data)
}

// newTestEngine creates an engine with a private scratch root, that is closed at
// the end of the test.
func newTestEngine(t *testing.T, opts ...archivenav.ConfigOption) *archivenav.Engine {
	t.Helper()
	opts = append([]archivenav.ConfigOption{
		archivenav.WithScratchRoot(t.TempDir()),
		archivenav.WithLogger(testLogger),
	}, opts...)
	engine := archivenav.New(opts...)
	t.Cleanup(func() {
		engine.Close(context.Background())
	})
	return engine
}

// entryNames returns the names of all entries except the parent entry.
func entryNames(listing []*archivenav.Entry) []string {
	names := []string{}
	for _, e := range listing {
		if !e.IsParent() {
			names = append(names, e.Name)
		}
	}
	return names
}

// testContainer wraps data into a container without size limit.
func testContainer(name string, data []byte) *archivenav.Container {
	return &archivenav.Container{Name: name, Data: data, MaxEntrySize: -1}
}

// lookupCodec returns the default codec with id.
func lookupCodec(t *testing.T, id string) archivenav.Codec {
	t.Helper()
	codec, ok := archivenav.DefaultRegistry().Lookup(id)
	if !ok {
		t.Fatalf("codec %s is not registered", id)
	}
	return codec
}
