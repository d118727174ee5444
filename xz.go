// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/ulikunitz/xz"
)

const fileExtensionXz = "xz"

var magicBytesXz = [][]byte{
	{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00},
}

// newXzCodec creates the xz codec.
func newXzCodec() Codec {
	return &streamCodec{
		id:            fileExtensionXz,
		extensions:    []string{fileExtensionXz},
		tarExtensions: []string{"txz"},
		magicBytes:    magicBytesXz,
		decompress: func(src io.Reader) (io.Reader, error) {
			return xz.NewReader(src)
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(dst)
		},
	}
}
