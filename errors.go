// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned if a path or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoPermission is returned if the filesystem denied access to a path.
	ErrNoPermission = errors.New("permission denied")

	// ErrUnknownType is returned if a path is neither a directory nor a supported archive,
	// or if a codec id is not registered.
	ErrUnknownType = errors.New("unknown type")

	// ErrEntryNotFound is returned if a virtual path is absent inside a container.
	ErrEntryNotFound = errors.New("entry not found in container")

	// ErrNotEditable is returned if a read-only codec is asked to serialize entries.
	ErrNotEditable = errors.New("codec is not editable")

	// ErrCleanupFailed is returned if a temporary directory could not be removed.
	// The directory stays registered and is retried on the next clean.
	ErrCleanupFailed = errors.New("cleanup failed")

	// ErrMaxInputSizeExceeded is returned if a container exceeds the configured maximum input size.
	ErrMaxInputSizeExceeded = errors.New("maximum input size exceeded")

	// ErrMaxExtractionSizeExceeded is returned if an extracted entry exceeds the configured
	// maximum extraction size.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")
)

// errorKinds maps the sentinel errors to their name in the error taxonomy.
var errorKinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, "NotFound"},
	{ErrNoPermission, "NoPermission"},
	{ErrUnknownType, "UnknownType"},
	{ErrEntryNotFound, "EntryNotFound"},
	{ErrNotEditable, "NotEditable"},
	{ErrCleanupFailed, "CleanupFailed"},
	{ErrMaxInputSizeExceeded, "MaxInputSizeExceeded"},
	{ErrMaxExtractionSizeExceeded, "MaxExtractionSizeExceeded"},
}

// ErrorKind returns the taxonomy name of err, e.g. "NotFound" for an error wrapping
// [ErrNotFound]. It returns an empty string for nil and "Unknown" for errors
// outside of the taxonomy.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

// pathError translates a filesystem error for path into the error taxonomy.
func pathError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrNoPermission, path)
	default:
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
}
