// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// fileExtensionZip is the file extension for zip files.
const fileExtensionZip = "zip"

// magicBytesZip contains the magic bytes for a zip archive.
// reference: https://golang.org/pkg/archive/zip/
var magicBytesZip = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
	{0x50, 0x4B, 0x05, 0x06}, // empty archive
}

// newZipCodec creates the editable zip codec.
func newZipCodec() Codec {
	return &archiveCodec{
		id:         fileExtensionZip,
		extensions: []string{fileExtensionZip},
		magicBytes: magicBytesZip,
		open:       openZip,
		serialize:  serializeZip,
	}
}

// openZip creates a walker over the entries of a zip container.
func openZip(c *Container) (archiveWalker, error) {
	reader, err := zip.NewReader(bytes.NewReader(c.Data), int64(len(c.Data)))
	if err != nil {
		return nil, fmt.Errorf("cannot create zip reader: %w", err)
	}
	return &zipWalker{zr: reader}, nil
}

// zipWalker is a walker for zip files
type zipWalker struct {
	zr *zip.Reader
	fp int
}

// Next returns the next entry in the zip archive
func (z *zipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.zr.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &zipEntry{z.zr.File[z.fp]}, nil
}

// zipEntry is an entry in a zip archive
type zipEntry struct {
	zf *zip.File
}

// Name returns the name of the entry
func (z *zipEntry) Name() string {
	return z.zf.FileHeader.Name
}

// Size returns the size of the entry
func (z *zipEntry) Size() int64 {
	return int64(z.zf.FileHeader.UncompressedSize64)
}

// IsDir returns true if the entry is a directory
func (z *zipEntry) IsDir() bool {
	return z.zf.FileHeader.Mode().IsDir()
}

// Open returns a reader for the entry
func (z *zipEntry) Open() (io.ReadCloser, error) {
	return z.zf.Open()
}

// serializeZip writes entries into a new zip archive.
func serializeZip(ctx context.Context, entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := cleanContainerPath(e.VirtualPath)
		if len(name) == 0 {
			return nil, fmt.Errorf("cannot add entry without name to zip")
		}

		// directories are marked by a trailing slash
		if e.Kind == KindDirectory {
			if _, err := zw.Create(name + "/"); err != nil {
				return nil, fmt.Errorf("cannot add directory %s: %w", name, err)
			}
			continue
		}

		if err := addFileToZip(zw, name, e.RealPath); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cannot finish zip archive: %w", err)
	}
	return buf.Bytes(), nil
}

// addFileToZip copies the file at src into zw as name.
func addFileToZip(zw *zip.Writer, name string, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return pathError(src, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return pathError(src, err)
	}

	hdr, err := zip.FileInfoHeader(stat)
	if err != nil {
		return fmt.Errorf("cannot create zip header for %s: %w", src, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("cannot add file %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("cannot write file %s: %w", name, err)
	}
	return nil
}
