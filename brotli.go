// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"io"

	"github.com/andybalholm/brotli"
)

const fileExtensionBrotli = "br"

// newBrotliCodec creates the brotli codec. Brotli streams have no signature, so
// they are only recognized by extension.
func newBrotliCodec() Codec {
	return &streamCodec{
		id:         fileExtensionBrotli,
		extensions: []string{fileExtensionBrotli},
		decompress: func(src io.Reader) (io.Reader, error) {
			return brotli.NewReader(src), nil
		},
		compress: func(dst io.Writer) (io.WriteCloser, error) {
			return brotli.NewWriter(dst), nil
		},
	}
}
