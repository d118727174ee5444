// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// fileExtensionTar is the file extension for tar files
const fileExtensionTar = "tar"

// offsetTar is the offset where the magic bytes are located in the file
const offsetTar = 257

// magicBytesTar are the magic bytes for tar files
var magicBytesTar = [][]byte{
	[]byte("ustar\x00tar\x00"),
	[]byte("ustar\x00"),
	[]byte("ustar  \x00"),
}

// newTarCodec creates the editable tar codec.
func newTarCodec() Codec {
	return &archiveCodec{
		id:         fileExtensionTar,
		extensions: []string{fileExtensionTar},
		magicBytes: magicBytesTar,
		offset:     offsetTar,
		open:       openTar,
		serialize:  serializeTar,
	}
}

// openTar creates a walker over the entries of a tar container.
func openTar(c *Container) (archiveWalker, error) {
	return &tarWalker{tr: tar.NewReader(bytes.NewReader(c.Data))}, nil
}

// tarWalker is a walker for tar files
type tarWalker struct {
	tr *tar.Reader
}

// Next returns the next entry in the tar archive. Only regular files and directories
// are returned; links, devices, fifos and pax global headers are skipped.
func (t *tarWalker) Next() (archiveEntry, error) {
	for {
		hdr, err := t.tr.Next()
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeDir, tar.TypeGNUSparse:
			return &tarEntry{hdr, t.tr}, nil
		}
	}
}

// tarEntry is an entry in a tar archive
type tarEntry struct {
	hdr *tar.Header
	tr  *tar.Reader
}

// Name returns the name of the entry
func (t *tarEntry) Name() string {
	return t.hdr.Name
}

// Size returns the size of the entry
func (t *tarEntry) Size() int64 {
	return t.hdr.Size
}

// IsDir returns true if the entry is a directory
func (t *tarEntry) IsDir() bool {
	return t.hdr.Typeflag == tar.TypeDir
}

// Open returns a reader for the entry
func (t *tarEntry) Open() (io.ReadCloser, error) {
	return noopReaderCloser{t.tr}, nil
}

// serializeTar writes entries into a new tar archive.
func serializeTar(ctx context.Context, entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, e := range entries {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := cleanContainerPath(e.VirtualPath)
		if len(name) == 0 {
			return nil, fmt.Errorf("cannot add entry without name to tar")
		}

		if e.Kind == KindDirectory {
			hdr := &tar.Header{Typeflag: tar.TypeDir, Name: name + "/", Mode: defaultCustomCreateDirMode}
			if err := tw.WriteHeader(hdr); err != nil {
				return nil, fmt.Errorf("cannot add directory %s: %w", name, err)
			}
			continue
		}

		if err := addFileToTar(tw, name, e.RealPath); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("cannot finish tar archive: %w", err)
	}
	return buf.Bytes(), nil
}

// addFileToTar copies the file at src into tw as name.
func addFileToTar(tw *tar.Writer, name string, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return pathError(src, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return pathError(src, err)
	}

	hdr, err := tar.FileInfoHeader(stat, "")
	if err != nil {
		return fmt.Errorf("cannot create tar header for %s: %w", src, err)
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("cannot add file %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("cannot write file %s: %w", name, err)
	}
	return nil
}
