// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nwaples/rardecode"
)

// fileExtensionRar is the file extension for Rar files.
const fileExtensionRar = "rar"

// magicBytesRar are the magic bytes for Rar files.
var magicBytesRar = [][]byte{
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},       // Rar 1.5
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, // Rar 5.0
}

// newRarCodec creates the read-only rar codec.
func newRarCodec() Codec {
	return &archiveCodec{
		id:         fileExtensionRar,
		extensions: []string{fileExtensionRar},
		magicBytes: magicBytesRar,
		open:       openRar,
	}
}

// openRar creates a walker over the entries of a rar container. Multi-volume
// archives are not supported.
func openRar(c *Container) (archiveWalker, error) {
	r, err := rardecode.NewReader(bytes.NewReader(c.Data), "")
	if err != nil {
		return nil, fmt.Errorf("cannot create rar decoder: %w", err)
	}
	return &rarWalker{r}, nil
}

// rarWalker is an archiveWalker for Rar files.
type rarWalker struct {
	r *rardecode.Reader
}

// Next returns the next entry in the rar file.
func (rw *rarWalker) Next() (archiveEntry, error) {
	fh, err := rw.r.Next()
	if err != nil {
		return nil, err
	}
	return &rarEntry{fh, rw.r}, nil
}

// rarEntry is an archiveEntry for Rar files.
type rarEntry struct {
	f *rardecode.FileHeader
	r io.Reader
}

// Name returns the name of the file.
func (r *rarEntry) Name() string {
	return r.f.Name
}

// Size returns the size of the file.
func (r *rarEntry) Size() int64 {
	return r.f.UnPackedSize
}

// IsDir returns true if the file is a directory.
func (r *rarEntry) IsDir() bool {
	return r.f.IsDir
}

// Open returns a reader for the file.
func (r *rarEntry) Open() (io.ReadCloser, error) {
	return noopReaderCloser{r.r}, nil
}
