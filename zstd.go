// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

const fileExtensionZstd = "zst"

var magicBytesZstd = [][]byte{
	{0x28, 0xb5, 0x2f, 0xfd},
}

// newZstdCodec creates the zstandard codec.
func newZstdCodec() Codec {
	return &streamCodec{
		id:            fileExtensionZstd,
		extensions:    []string{fileExtensionZstd},
		tarExtensions: []string{"tzst"},
		magicBytes:    magicBytesZstd,
		decompress: func(src io.Reader) (io.Reader, error) {
			d, err := zstd.NewReader(src)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(dst)
		},
	}
}
