// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
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
)

// zipFiles creates a zip archive in memory, names map to content.
func zipFiles(t *testing.T, files ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(f[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testEnvironment creates outer.zip, which holds docs/readme.txt and inner.zip with
// hello.txt, and an environment writing into out.
func testEnvironment(t *testing.T, in string) (*environment, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	inner := zipFiles(t, [2]string{"hello.txt", "hello"})
	outer := zipFiles(t,
		[2]string{"docs/readme.txt", "read me"},
		[2]string{"inner.zip", string(inner)},
	)
	path := filepath.Join(dir, "outer.zip")
	if err := os.WriteFile(path, outer, 0640); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := archivenav.New(
		archivenav.WithScratchRoot(t.TempDir()),
		archivenav.WithLogger(logger),
	)
	t.Cleanup(func() {
		engine.Close(context.Background())
	})

	out := &bytes.Buffer{}
	return &environment{
		ctx:    context.Background(),
		engine: engine,
		logger: logger,
		in:     strings.NewReader(in),
		out:    out,
	}, out, path
}

// TestBrowse runs a scripted interactive session
func TestBrowse(t *testing.T) {
	script := strings.Join([]string{
		"help",
		"cd docs",
		"..",
		"cd inner.zip",
		"pwd",
		"extract hello.txt",
		"bogus",
		"cd missing",
		"",
		"quit",
		"ls",
	}, "\n")
	env, out, path := testEnvironment(t, script)

	cmd := &BrowseCmd{Path: path}
	if err := cmd.Run(env); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"archive:zip",
		"inner.zip",
		"readme.txt",
		"commands:",
		"outer.zip/inner.zip",
		"hello.txt",
		`unknown command "bogus"`,
		"error: " + archivenav.ErrEntryNotFound.Error(),
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output does not contain %q:\n%s", want, output)
		}
	}

	// the extracted path is printed
	var extracted string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimPrefix(line, "> ")
		if filepath.IsAbs(line) && filepath.Base(line) == "hello.txt" {
			extracted = line
		}
	}
	if len(extracted) == 0 {
		t.Fatalf("extracted path not printed:\n%s", output)
	}
	data, err := os.ReadFile(extracted)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("extracted content = %q, want hello", data)
	}

	// nothing after quit is executed
	if strings.Count(output, "outer.zip/inner.zip\n") != 2 {
		t.Errorf("commands after quit were executed:\n%s", output)
	}
}

// TestLs tests listing with inner entries
func TestLs(t *testing.T) {
	tests := []struct {
		name    string
		inner   []string
		want    []string
		wantErr bool
	}{
		{name: "root", want: []string{"docs", "inner.zip"}},
		{name: "directory", inner: []string{"docs"}, want: []string{"readme.txt"}},
		{name: "nested archive", inner: []string{"inner.zip"}, want: []string{"hello.txt"}},
		{name: "missing entry", inner: []string{"missing"}, wantErr: true},
		{name: "leave root", inner: []string{".."}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env, out, path := testEnvironment(t, "")
			cmd := &LsCmd{Path: path, Inner: test.inner}
			err := cmd.Run(env)
			if (err != nil) != test.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, test.wantErr)
			}
			for _, want := range test.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output does not contain %q:\n%s", want, out.String())
				}
			}
		})
	}
}

// TestPrintListing tests the listing format
func TestPrintListing(t *testing.T) {
	snap := &archivenav.Snapshot{
		Breadcrumb: []string{"tmp", "a.zip"},
		Listing: []*archivenav.Entry{
			archivenav.Parent,
			{Name: "dir", Kind: archivenav.KindDirectory, Size: -1},
			{Name: "b.tar", Kind: archivenav.KindArchive, CodecID: "tar", Size: 1024},
			{Name: "c.txt", Kind: archivenav.KindFile, Size: 3},
		},
	}

	var buf bytes.Buffer
	printListing(&buf, snap)

	want := "tmp/a.zip\n" +
		"directory               -  dir\n" +
		"archive:tar          1024  b.tar\n" +
		"file                    3  c.txt\n"
	if buf.String() != want {
		t.Errorf("printListing() =\n%s\nwant\n%s", buf.String(), want)
	}
}
