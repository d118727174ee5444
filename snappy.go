// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/klauspost/compress/snappy"
)

const fileExtensionSnappy = "sz"

var magicBytesSnappy = [][]byte{
	append([]byte{0xff, 0x06, 0x00, 0x00}, []byte("sNaPpY")...),
}

// newSnappyCodec creates the snappy framing format codec.
func newSnappyCodec() Codec {
	return &streamCodec{
		id:         fileExtensionSnappy,
		extensions: []string{fileExtensionSnappy},
		magicBytes: magicBytesSnappy,
		decompress: func(src io.Reader) (io.Reader, error) {
			return snappy.NewReader(src), nil
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return snappy.NewBufferedWriter(dst), nil
		},
	}
}
