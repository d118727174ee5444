// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

const fileExtensionZlib = "zz"

// magicBytesZlib are the zlib headers of the common compression levels. Headers
// that are printable ascii, like "x ", are left out to avoid sniffing text files.
var magicBytesZlib = [][]byte{
	{0x78, 0x01},
	{0x78, 0x9c},
	{0x78, 0xda},
}

// newZlibCodec creates the zlib codec.
func newZlibCodec() Codec {
	return &streamCodec{
		id:         fileExtensionZlib,
		extensions: []string{fileExtensionZlib},
		magicBytes: magicBytesZlib,
		decompress: func(src io.Reader) (io.Reader, error) {
			return zlib.NewReader(src)
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return zlib.NewWriter(dst), nil
		},
	}
}
