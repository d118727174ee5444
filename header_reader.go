// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"fmt"
	"io"
)

// readHeader reads at most headerSize bytes from r. If r is shorter, whatever was
// read is returned without error.
func readHeader(r io.Reader, headerSize int) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	return buf[:n], nil
}
