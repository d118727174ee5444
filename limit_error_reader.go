// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"io"
)

// limitErrorReader is a reader that returns Err if the limit is exceeded
// before the underlying reader is fully read.
// If the limit is -1, all data from the original reader is read.
type limitErrorReader struct {
	R   io.Reader // underlying reader
	L   int64     // limit
	N   int64     // number of bytes read
	Err error     // error returned when the limit is exceeded
}

// Read reads from the underlying reader and fills up p.
// It returns Err if the limit is reached and the underlying reader still has data.
func (l *limitErrorReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// determine how many bytes to read
	m := l.L - l.N
	if l.L == -1 || m > int64(len(p)) {
		m = int64(len(p))
	}

	// limit reached, probe if there is more data
	if m == 0 {
		var probe [1]byte
		n, err := l.R.Read(probe[:])
		if n > 0 {
			return 0, l.Err
		}
		return 0, err
	}

	// read from underlying reader and preserve error type
	n, err := l.R.Read(p[:m])
	l.N += int64(n)
	return n, err
}

// ReadBytes returns how many bytes have been read from the underlying reader
func (l *limitErrorReader) ReadBytes() int64 {
	return l.N
}

// newLimitErrorReader returns a new limitErrorReader that reads from r
func newLimitErrorReader(r io.Reader, limit int64, err error) *limitErrorReader {
	return &limitErrorReader{R: r, L: limit, Err: err}
}

// readAllLimited reads r until EOF and returns err if more than limit bytes are
// available. If limit is -1, r is read completely.
func readAllLimited(r io.Reader, limit int64, err error) ([]byte, error) {
	var buf bytes.Buffer
	if _, rerr := buf.ReadFrom(newLimitErrorReader(r, limit, err)); rerr != nil {
		return nil, rerr
	}
	return buf.Bytes(), nil
}
