// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

const (
	// fileExtensionGZip is the file extension for gzip files.
	fileExtensionGZip = "gz"

	// fileExtensionTarGZip is the file extension for tgz files, which are tar archives compressed with gzip.
	fileExtensionTarGZip = "tgz"
)

var magicBytesGZip = [][]byte{
	{0x1f, 0x8b},
}

// newGZipCodec creates the gzip codec.
func newGZipCodec() Codec {
	return &streamCodec{
		id:            fileExtensionGZip,
		extensions:    []string{fileExtensionGZip},
		tarExtensions: []string{fileExtensionTarGZip},
		magicBytes:    magicBytesGZip,
		decompress: func(src io.Reader) (io.Reader, error) {
			return gzip.NewReader(src)
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(dst), nil
		},
	}
}
