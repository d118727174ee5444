// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

const fileExtensionBzip2 = "bz2"

var magicBytesBzip2 = [][]byte{
	[]byte("BZh1"),
	[]byte("BZh2"),
	[]byte("BZh3"),
	[]byte("BZh4"),
	[]byte("BZh5"),
	[]byte("BZh6"),
	[]byte("BZh7"),
	[]byte("BZh8"),
	[]byte("BZh9"),
}

// newBzip2Codec creates the bzip2 codec.
func newBzip2Codec() Codec {
	return &streamCodec{
		id:            fileExtensionBzip2,
		extensions:    []string{fileExtensionBzip2},
		tarExtensions: []string{"tbz2", "tbz"},
		magicBytes:    magicBytesBzip2,
		decompress: func(src io.Reader) (io.Reader, error) {
			return bzip2.NewReader(src, &bzip2.ReaderConfig{})
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(dst, &bzip2.WriterConfig{})
		},
	}
}
