// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// fileExtension7zip is the file extension for 7zip files
const fileExtension7zip = "7z"

// magicBytes7zip are the magic bytes for 7zip files
var magicBytes7zip = [][]byte{
	{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C},
}

// newSevenZipCodec creates the read-only 7zip codec.
func newSevenZipCodec() Codec {
	return &archiveCodec{
		id:         fileExtension7zip,
		extensions: []string{fileExtension7zip},
		magicBytes: magicBytes7zip,
		open:       openSevenZip,
	}
}

// openSevenZip creates a walker over the entries of a 7zip container.
func openSevenZip(c *Container) (archiveWalker, error) {
	reader, err := sevenzip.NewReader(bytes.NewReader(c.Data), int64(len(c.Data)))
	if err != nil {
		return nil, fmt.Errorf("cannot create 7zip reader: %w", err)
	}
	return &sevenZipWalker{reader, 0}, nil
}

// sevenZipWalker is a walker for 7zip files
type sevenZipWalker struct {
	r  *sevenzip.Reader
	fp int
}

// Next returns the next entry in the 7zip file
func (z *sevenZipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.r.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &sevenZipEntry{z.r.File[z.fp]}, nil
}

// sevenZipEntry is an entry in a 7zip file
type sevenZipEntry struct {
	f *sevenzip.File
}

// Name returns the name of the 7zip entry
func (z *sevenZipEntry) Name() string {
	return z.f.Name
}

// Size returns the size of the 7zip entry
func (z *sevenZipEntry) Size() int64 {
	return z.f.FileInfo().Size()
}

// IsDir returns true if the 7zip entry is a directory
func (z *sevenZipEntry) IsDir() bool {
	return z.f.FileInfo().IsDir()
}

// Open returns a reader for the 7zip entry
func (z *sevenZipEntry) Open() (io.ReadCloser, error) {
	return z.f.Open()
}
