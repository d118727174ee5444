// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
)

// decompressionFunc returns a reader that decompresses src.
type decompressionFunc func(src io.Reader) (io.Reader, error)

// compressionFunc returns a writer that compresses into dst.
type compressionFunc func(dst io.Writer) (io.WriteCloser, error)

// streamCodec is a [Codec] for single-stream compressions like lz4 or gzip. The
// container holds exactly one entry, which is named like the container without the
// compression extension.
type streamCodec struct {
	id            string
	extensions    []string
	tarExtensions []string // extensions of compressed tar archives, e.g. tgz
	magicBytes    [][]byte
	decompress    decompressionFunc
	compress      compressionFunc
}

// ID returns the id of the codec.
func (s *streamCodec) ID() string {
	return s.id
}

// Extensions returns the file extensions handled by the codec.
func (s *streamCodec) Extensions() []string {
	return append(slices.Clone(s.extensions), s.tarExtensions...)
}

// MagicBytes returns the signatures of the compression format.
func (s *streamCodec) MagicBytes() [][]byte {
	return s.magicBytes
}

// Offset returns the offset of the magic bytes, which is always zero.
func (s *streamCodec) Offset() int {
	return 0
}

// Editable returns true if the codec can compress.
func (s *streamCodec) Editable() bool {
	return s.compress != nil
}

// innerName determines the name of the decompressed content from the container name.
func (s *streamCodec) innerName(containerName string) string {
	ext := extensionOf(containerName)
	base := stripExtension(containerName)
	switch {
	case slices.Contains(s.tarExtensions, ext):
		return base + "." + fileExtensionTar
	case slices.Contains(s.extensions, ext) && base != containerName:
		return base
	default:
		return fmt.Sprintf("%s.decompressed", containerName)
	}
}

// List returns the single decompressed entry at the container root.
func (s *streamCodec) List(ctx context.Context, c *Container, prefix string) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cleanContainerPath(prefix)) > 0 {
		return []*Entry{}, nil
	}
	name := s.innerName(c.Name)
	return []*Entry{{Name: name, Kind: KindFile, VirtualPath: name, Size: -1}}, nil
}

// Extract decompresses the container if virtualPath names its single entry.
func (s *streamCodec) Extract(ctx context.Context, c *Container, virtualPath string) ([]byte, error) {
	if cleanContainerPath(virtualPath) != s.innerName(c.Name) {
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, virtualPath, c.Name)
	}

	// start decompression
	stream, err := s.decompress(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("cannot start %s decompression: %w", s.id, err)
	}
	defer func() {
		if closer, ok := stream.(io.Closer); ok {
			closer.Close()
		}
	}()

	// check if context is canceled
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readAllLimited(stream, c.MaxEntrySize, ErrMaxExtractionSizeExceeded)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress %s: %w", c.Name, err)
	}
	return data, nil
}

// Serialize compresses the single file in entries.
func (s *streamCodec) Serialize(ctx context.Context, entries []*Entry) ([]byte, error) {
	if s.compress == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, s.id)
	}

	var files []*Entry
	for _, e := range entries {
		if e.Kind != KindDirectory {
			files = append(files, e)
		}
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("%s compresses exactly one file, got %d", s.id, len(files))
	}

	src, err := os.Open(files[0].RealPath)
	if err != nil {
		return nil, pathError(files[0].RealPath, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w, err := s.compress(&buf)
	if err != nil {
		return nil, fmt.Errorf("cannot start %s compression: %w", s.id, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return nil, fmt.Errorf("cannot compress %s: %w", files[0].RealPath, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("cannot finish %s compression: %w", s.id, err)
	}

	// check if context is canceled
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
