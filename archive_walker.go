// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"context"
	"fmt"
	"io"
)

// archiveWalker is an interface that represents a file walker in an archive
type archiveWalker interface {
	Next() (archiveEntry, error)
}

// archiveEntry is an interface that represents a file in an archive
type archiveEntry interface {
	Name() string
	IsDir() bool
	Size() int64
	Open() (io.ReadCloser, error)
}

// openWalkerFunc creates a walker over the entries of c.
type openWalkerFunc func(c *Container) (archiveWalker, error)

// serializeFunc encodes entries into a new container.
type serializeFunc func(ctx context.Context, entries []*Entry) ([]byte, error)

// archiveCodec is a [Codec] for containers with a directory structure. Listing and
// extraction walk the container entries, the format specific part is the walker.
type archiveCodec struct {
	id         string
	extensions []string
	magicBytes [][]byte
	offset     int
	open       openWalkerFunc
	serialize  serializeFunc // nil for read-only codecs
}

// ID returns the id of the codec.
func (a *archiveCodec) ID() string {
	return a.id
}

// Extensions returns the file extensions handled by the codec.
func (a *archiveCodec) Extensions() []string {
	return a.extensions
}

// MagicBytes returns the signatures of the container format.
func (a *archiveCodec) MagicBytes() [][]byte {
	return a.magicBytes
}

// Offset returns the offset of the magic bytes.
func (a *archiveCodec) Offset() int {
	return a.offset
}

// Editable returns true if the codec can serialize entries.
func (a *archiveCodec) Editable() bool {
	return a.serialize != nil
}

// List walks all entries of c and returns those one level below prefix.
func (a *archiveCodec) List(ctx context.Context, c *Container, prefix string) ([]*Entry, error) {
	w, err := a.open(c)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s container %s: %w", a.id, c.Name, err)
	}

	var records []rawEntry
	for {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ae, err := w.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s container %s: %w", a.id, c.Name, err)
		}
		records = append(records, rawEntry{name: ae.Name(), isDir: ae.IsDir(), size: ae.Size()})
	}

	return listLevel(records, prefix), nil
}

// Extract walks c until the entry at virtualPath is found and returns its content.
func (a *archiveCodec) Extract(ctx context.Context, c *Container, virtualPath string) ([]byte, error) {
	w, err := a.open(c)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s container %s: %w", a.id, c.Name, err)
	}

	want := cleanContainerPath(virtualPath)
	for {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ae, err := w.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, virtualPath, c.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s container %s: %w", a.id, c.Name, err)
		}
		if ae.IsDir() || cleanContainerPath(ae.Name()) != want {
			continue
		}

		rc, err := ae.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", virtualPath, err)
		}
		defer rc.Close()
		return readAllLimited(rc, c.MaxEntrySize, ErrMaxExtractionSizeExceeded)
	}
}

// Serialize encodes entries into a new container.
func (a *archiveCodec) Serialize(ctx context.Context, entries []*Entry) ([]byte, error) {
	if a.serialize == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, a.id)
	}
	return a.serialize(ctx, entries)
}

// noopReaderCloser wraps a reader, whose lifetime is managed by its walker.
type noopReaderCloser struct {
	io.Reader
}

// Close does nothing.
func (noopReaderCloser) Close() error {
	return nil
}
