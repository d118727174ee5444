// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav_test

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hashicorp/go-archivenav"
)

// test7zipArchiveHex is a 7zip archive with the file test/data ("Hello World!")
const test7zipArchiveHex = "377abcaf271c00049af18e7973000000000000002000000000000000a7e80f9801000b48656c6c6f20576f726c6421000000813307ae0fcef2b20c07c8437f41b1fafddb88b6d7636b8bd58a0e24a2f717a5f156e37f41fd00833298421d5d088c0cf987b30c0473663599e4d2f21cb69620038f10458109662135c3024189f42799abe3227b174a853e824f808b2efaab000017061001096300070b01000123030101055d001000000c760a015bcfa0a70000"

// testRarArchiveBase64 is a rar archive with the directory dir, the files dir/foo and
// file and the symlink link
const testRarArchiveBase64 = "UmFyIRoHAQAzkrXlCgEFBgAFAQGAgAADk1YoJQIDC50ABJ0ApIMClAgA9IAAAQdkaXIvZm9vCgMTQPjXZsjBSQhNaSAgNCBTZXAgMjAyNCAwODowMzo0NCBDRVNUCpQdu+oiAgMLnQAEnQCkgwI+z7uqgAABBGZpbGUKAxPEDddmxHsQDkRpICAzIFNlcCAyMDI0IDE1OjIzOjE2IENFU1QKe1xvKCwCAxcABAftwwIAAAAAgAABBGxpbmsKAxNM+NdmSCZHGAsFAQAHZGlyL2Zvb0A2hh0bAgMLAAEA7YMBgAABA2RpcgoDE0D412Z533kHHXdWUQMFBAA="

// TestArchiveCodecList tests listing of zip and tar containers
func TestArchiveCodecList(t *testing.T) {
	files := []testFile{
		{"z.txt", "z"},
		{"b/", ""},
		{"a/b/x.txt", "x"},
		{"a/b/y.txt", "y"},
		{"A.txt", "A"},
		{"c/d.txt", "d"},
	}
	containers := []struct {
		codec string
		data  []byte
	}{
		{"zip", zipBytes(t, files...)},
		{"tar", tarBytes(t, tar.FormatPAX, files...)},
	}

	tests := []struct {
		prefix    string
		wantNames []string
		wantPaths []string
	}{
		{"", []string{"a", "b", "c", "A.txt", "z.txt"}, []string{"a", "b", "c", "A.txt", "z.txt"}},
		{"a", []string{"b"}, []string{"a/b"}},
		{"a/b", []string{"x.txt", "y.txt"}, []string{"a/b/x.txt", "a/b/y.txt"}},
		{"a/b/", []string{"x.txt", "y.txt"}, []string{"a/b/x.txt", "a/b/y.txt"}},
		{"b", []string{}, []string{}},
		{"missing", []string{}, []string{}},
	}

	for _, c := range containers {
		codec := lookupCodec(t, c.codec)
		for _, test := range tests {
			t.Run(c.codec+"/"+test.prefix, func(t *testing.T) {
				entries, err := codec.List(context.Background(), testContainer("test."+c.codec, c.data), test.prefix)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				gotNames, gotPaths := []string{}, []string{}
				for _, e := range entries {
					gotNames = append(gotNames, e.Name)
					gotPaths = append(gotPaths, e.VirtualPath)
				}
				if !reflect.DeepEqual(gotNames, test.wantNames) {
					t.Errorf("List() names = %v, want %v", gotNames, test.wantNames)
				}
				if !reflect.DeepEqual(gotPaths, test.wantPaths) {
					t.Errorf("List() paths = %v, want %v", gotPaths, test.wantPaths)
				}
			})
		}
	}
}

// TestArchiveCodecExtract tests extraction of single entries
func TestArchiveCodecExtract(t *testing.T) {
	files := []testFile{
		{"./dir/file.txt", "content"},
		{"dir/other.txt", "other"},
	}
	for _, id := range []string{"zip", "tar"} {
		codec := lookupCodec(t, id)
		var data []byte
		if id == "zip" {
			data = zipBytes(t, files...)
		} else {
			data = tarBytes(t, tar.FormatPAX, files...)
		}

		t.Run(id, func(t *testing.T) {
			ctx := context.Background()

			got, err := codec.Extract(ctx, testContainer("test", data), "dir/file.txt")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if string(got) != "content" {
				t.Errorf("Extract() = %q, want %q", got, "content")
			}

			_, err = codec.Extract(ctx, testContainer("test", data), "dir/missing.txt")
			if !errors.Is(err, archivenav.ErrEntryNotFound) {
				t.Errorf("Extract() error = %v, want %v", err, archivenav.ErrEntryNotFound)
			}

			limited := &archivenav.Container{Name: "test", Data: data, MaxEntrySize: 3}
			_, err = codec.Extract(ctx, limited, "dir/file.txt")
			if !errors.Is(err, archivenav.ErrMaxExtractionSizeExceeded) {
				t.Errorf("Extract() error = %v, want %v", err, archivenav.ErrMaxExtractionSizeExceeded)
			}

			canceled, cancel := context.WithCancel(ctx)
			cancel()
			if _, err := codec.Extract(canceled, testContainer("test", data), "dir/file.txt"); err == nil {
				t.Errorf("Extract() with canceled context succeeded")
			}
		})
	}
}

// TestTarCodecSkipsLinks tests that only regular files and directories of a tar
// container are listed and extracted
func TestTarCodecSkipsLinks(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	headers := []*tar.Header{
		{Name: "dir/", Typeflag: tar.TypeDir, Mode: 0750},
		{Name: "dir/file.txt", Typeflag: tar.TypeReg, Mode: 0640, Size: 4},
		{Name: "dir/symlink", Typeflag: tar.TypeSymlink, Linkname: "file.txt", Mode: 0777},
		{Name: "dir/hardlink", Typeflag: tar.TypeLink, Linkname: "dir/file.txt", Mode: 0640},
		{Name: "dir/fifo", Typeflag: tar.TypeFifo, Mode: 0640},
	}
	for _, hdr := range headers {
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("cannot add %s to tar: %v", hdr.Name, err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write([]byte("data")); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	codec := lookupCodec(t, "tar")
	c := testContainer("links.tar", buf.Bytes())

	entries, err := codec.List(ctx, c, "dir")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "file.txt" {
		t.Errorf("List() = %v, want [file.txt]", entries)
	}

	for _, name := range []string{"dir/symlink", "dir/hardlink", "dir/fifo"} {
		if _, err := codec.Extract(ctx, c, name); !errors.Is(err, archivenav.ErrEntryNotFound) {
			t.Errorf("Extract(%s) error = %v, want %v", name, err, archivenav.ErrEntryNotFound)
		}
	}

	data, err := codec.Extract(ctx, c, "dir/file.txt")
	if err != nil || string(data) != "data" {
		t.Errorf("Extract() = %q, %v, want data", data, err)
	}
}

// TestArchiveCodecSerialize tests writing and reading back editable archives
func TestArchiveCodecSerialize(t *testing.T) {
	dir := t.TempDir()
	src := createTestFile(t, filepath.Join(dir, "src.txt"), []byte("serialized"))
	entries := []*archivenav.Entry{
		{Name: "docs", Kind: archivenav.KindDirectory, VirtualPath: "docs"},
		{Name: "src.txt", Kind: archivenav.KindFile, VirtualPath: "docs/src.txt", RealPath: src},
	}

	for _, id := range []string{"zip", "tar"} {
		t.Run(id, func(t *testing.T) {
			ctx := context.Background()
			codec := lookupCodec(t, id)
			if !codec.Editable() {
				t.Fatalf("%s codec is not editable", id)
			}

			data, err := codec.Serialize(ctx, entries)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}

			listed, err := codec.List(ctx, testContainer("out."+id, data), "docs")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(listed) != 1 || listed[0].Name != "src.txt" {
				t.Fatalf("List() = %v, want [src.txt]", listed)
			}
			got, err := codec.Extract(ctx, testContainer("out."+id, data), "docs/src.txt")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if string(got) != "serialized" {
				t.Errorf("Extract() = %q, want %q", got, "serialized")
			}

			if _, err := codec.Serialize(ctx, []*archivenav.Entry{{Name: "missing", RealPath: filepath.Join(dir, "missing"), VirtualPath: "missing"}}); !errors.Is(err, archivenav.ErrNotFound) {
				t.Errorf("Serialize() error = %v, want %v", err, archivenav.ErrNotFound)
			}
		})
	}
}

// TestSevenZipCodec tests the read-only 7zip codec
func TestSevenZipCodec(t *testing.T) {
	ctx := context.Background()
	data, err := hex.DecodeString(test7zipArchiveHex)
	if err != nil {
		t.Fatal(err)
	}
	codec := lookupCodec(t, "7z")
	c := testContainer("test.7z", data)

	root, err := codec.List(ctx, c, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(root) != 1 || root[0].Name != "test" || root[0].Kind != archivenav.KindDirectory {
		t.Fatalf("List() = %v, want [test]", root)
	}

	got, err := codec.Extract(ctx, c, "test/data")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if string(got) != "Hello World!" {
		t.Errorf("Extract() = %q, want %q", got, "Hello World!")
	}

	if codec.Editable() {
		t.Errorf("7z codec must not be editable")
	}
	if _, err := codec.Serialize(ctx, nil); !errors.Is(err, archivenav.ErrNotEditable) {
		t.Errorf("Serialize() error = %v, want %v", err, archivenav.ErrNotEditable)
	}
}

// TestRarCodec tests the read-only rar codec
func TestRarCodec(t *testing.T) {
	ctx := context.Background()
	data, err := base64.StdEncoding.DecodeString(testRarArchiveBase64)
	if err != nil {
		t.Fatal(err)
	}
	codec := lookupCodec(t, "rar")
	c := testContainer("test.rar", data)

	root, err := codec.List(ctx, c, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(root) == 0 || root[0].Name != "dir" || root[0].Kind != archivenav.KindDirectory {
		t.Fatalf("List() = %v, want dir first", root)
	}
	found := false
	for _, e := range root {
		if e.Name == "file" {
			found = true
		}
	}
	if !found {
		t.Errorf("List() = %v, want file", root)
	}

	if codec.Editable() {
		t.Errorf("rar codec must not be editable")
	}
	if _, err := codec.Serialize(ctx, nil); !errors.Is(err, archivenav.ErrNotEditable) {
		t.Errorf("Serialize() error = %v, want %v", err, archivenav.ErrNotEditable)
	}
}

// TestStreamCodecs tests all single-stream codecs
func TestStreamCodecs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := []byte("a single compressed stream")
	src := createTestFile(t, filepath.Join(dir, "data.txt"), content)
	other := createTestFile(t, filepath.Join(dir, "other.txt"), content)

	for _, id := range []string{"lz4", "gz", "bz2", "xz", "zst", "zz", "sz", "br"} {
		t.Run(id, func(t *testing.T) {
			codec := lookupCodec(t, id)

			data, err := codec.Serialize(ctx, []*archivenav.Entry{{Name: "data.txt", Kind: archivenav.KindFile, VirtualPath: "data.txt", RealPath: src}})
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			c := testContainer("data.txt."+id, data)

			entries, err := codec.List(ctx, c, "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(entries) != 1 || entries[0].Name != "data.txt" || entries[0].VirtualPath != "data.txt" {
				t.Fatalf("List() = %v, want [data.txt]", entries)
			}

			below, err := codec.List(ctx, c, "data.txt")
			if err != nil || len(below) != 0 {
				t.Errorf("List(data.txt) = %v, %v, want no entries", below, err)
			}

			got, err := codec.Extract(ctx, c, "data.txt")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if string(got) != string(content) {
				t.Errorf("Extract() = %q, want %q", got, content)
			}

			if _, err := codec.Extract(ctx, c, "other.txt"); !errors.Is(err, archivenav.ErrEntryNotFound) {
				t.Errorf("Extract() error = %v, want %v", err, archivenav.ErrEntryNotFound)
			}

			limited := &archivenav.Container{Name: c.Name, Data: data, MaxEntrySize: 4}
			if _, err := codec.Extract(ctx, limited, "data.txt"); !errors.Is(err, archivenav.ErrMaxExtractionSizeExceeded) {
				t.Errorf("Extract() error = %v, want %v", err, archivenav.ErrMaxExtractionSizeExceeded)
			}

			two := []*archivenav.Entry{
				{Name: "data.txt", Kind: archivenav.KindFile, VirtualPath: "data.txt", RealPath: src},
				{Name: "other.txt", Kind: archivenav.KindFile, VirtualPath: "other.txt", RealPath: other},
			}
			if _, err := codec.Serialize(ctx, two); err == nil {
				t.Errorf("Serialize() of two files succeeded")
			}
		})
	}
}

// TestStreamCodecInnerName tests the naming of the decompressed entry
func TestStreamCodecInnerName(t *testing.T) {
	tests := []struct {
		codec     string
		container string
		want      string
	}{
		{"lz4", "nested.tar.lz4", "nested.tar"},
		{"gz", "backup.tgz", "backup.tar"},
		{"gz", "notes.txt.gz", "notes.txt"},
		{"bz2", "src.tbz2", "src.tar"},
		{"xz", "src.txz", "src.tar"},
		{"zst", "src.tzst", "src.tar"},
		{"gz", "upload", "upload.decompressed"},
	}
	for _, test := range tests {
		t.Run(test.container, func(t *testing.T) {
			entries, err := lookupCodec(t, test.codec).List(context.Background(), testContainer(test.container, nil), "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(entries) != 1 || entries[0].Name != test.want {
				t.Errorf("List() = %v, want [%s]", entries, test.want)
			}
		})
	}
}

// TestRegistry tests codec lookup
func TestRegistry(t *testing.T) {
	r := archivenav.DefaultRegistry()

	wantIDs := []string{"7z", "br", "bz2", "gz", "lz4", "rar", "sz", "tar", "xz", "zip", "zst", "zz"}
	if got := r.IDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("IDs() = %v, want %v", got, wantIDs)
	}

	extensions := map[string]string{"ZIP": "zip", "tgz": "gz", "tbz": "bz2", "txz": "xz", "7z": "7z", "Rar": "rar"}
	for ext, want := range extensions {
		c, ok := r.ForExtension(ext)
		if !ok || c.ID() != want {
			t.Errorf("ForExtension(%s) = %v, want %s", ext, c, want)
		}
	}
	if _, ok := r.ForExtension(""); ok {
		t.Errorf("ForExtension() of empty extension found a codec")
	}
	if _, ok := r.ForName("report.txt"); ok {
		t.Errorf("ForName(report.txt) found a codec")
	}

	// tar magic bytes are at offset 257
	if r.MaxHeaderLength() < 257+8 {
		t.Errorf("MaxHeaderLength() = %d, want at least %d", r.MaxHeaderLength(), 257+8)
	}
	if c, ok := r.Sniff(tarBytes(t, tar.FormatUSTAR, testFile{"x", "x"})); !ok || c.ID() != "tar" {
		t.Errorf("Sniff() of tar = %v, want tar", c)
	}
	if c, ok := r.Sniff(zipBytes(t, testFile{"x", "x"})); !ok || c.ID() != "zip" {
		t.Errorf("Sniff() of zip = %v, want zip", c)
	}
	if c, ok := r.Sniff(compressLZ4(t, []byte("x"))); !ok || c.ID() != "lz4" {
		t.Errorf("Sniff() of lz4 = %v, want lz4", c)
	}
	if _, ok := r.Sniff([]byte("plain text")); ok {
		t.Errorf("Sniff() of plain text found a codec")
	}
}

// TestRegistryOverride tests that a later codec replaces an earlier one
func TestRegistryOverride(t *testing.T) {
	custom := lookupCodec(t, "tar")
	r := archivenav.NewRegistry(lookupCodec(t, "zip"))
	r.Register(&renamedCodec{Codec: custom, id: "zip"})

	c, ok := r.Lookup("zip")
	if !ok {
		t.Fatalf("Lookup(zip) found nothing")
	}
	if _, isRenamed := c.(*renamedCodec); !isRenamed {
		t.Errorf("Lookup(zip) = %T, want the registered override", c)
	}
	if got := r.IDs(); !reflect.DeepEqual(got, []string{"zip"}) {
		t.Errorf("IDs() = %v, want [zip]", got)
	}
}

// renamedCodec registers a codec under another id
type renamedCodec struct {
	archivenav.Codec
	id string
}

// ID returns the overridden id
func (r *renamedCodec) ID() string {
	return r.id
}

// TestEngineCustomCodec registers an additional codec with the engine
func TestEngineCustomCodec(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, archivenav.WithCodecs(&extensionCodec{Codec: lookupCodec(t, "zip"), ext: "pkg"}))
	root := createTestFile(t, filepath.Join(t.TempDir(), "bundle.pkg"), zipBytes(t, testFile{"manifest.json", "{}"}))

	snap, err := engine.Load(ctx, root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := entryNames(snap.Listing); !reflect.DeepEqual(got, []string{"manifest.json"}) {
		t.Errorf("Load() listing = %v, want [manifest.json]", got)
	}
	if snap.Location.CodecID() != "pkg" {
		t.Errorf("Load() codec = %s, want pkg", snap.Location.CodecID())
	}
}

// extensionCodec is a zip codec for another extension
type extensionCodec struct {
	archivenav.Codec
	ext string
}

// ID returns the extension
func (e *extensionCodec) ID() string {
	return e.ext
}

// Extensions returns the extension only
func (e *extensionCodec) Extensions() []string {
	return []string{e.ext}
}
