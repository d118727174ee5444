// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"context"
	"sort"
	"strings"
)

// Container is a loaded archive: the raw bytes and the base name of the file they
// were read from.
type Container struct {
	// Name is the base name of the container file, e.g. "nested.tar.lz4"
	Name string

	// Data is the content of the container file
	Data []byte

	// MaxEntrySize is the maximum size of an extracted entry. Set value to -1 to
	// disable the check.
	MaxEntrySize int64
}

// Codec decodes (and for editable codecs encodes) one kind of container.
type Codec interface {
	// ID returns the stable id of the codec, e.g. "zip".
	ID() string

	// Extensions returns the lower case file extensions handled by the codec.
	Extensions() []string

	// MagicBytes returns the signatures used to sniff the container kind.
	MagicBytes() [][]byte

	// Offset returns the offset of the magic bytes in the header.
	Offset() int

	// List returns the entries one level below prefix. Directories are synthesized
	// from the contained paths and appear once. Entries are sorted directories first,
	// then lexicographically by name.
	List(ctx context.Context, c *Container, prefix string) ([]*Entry, error)

	// Extract returns the content of the entry at virtualPath. If the entry does not
	// exist, an error wrapping [ErrEntryNotFound] is returned.
	Extract(ctx context.Context, c *Container, virtualPath string) ([]byte, error)

	// Serialize encodes entries into a new container. Each entry needs a VirtualPath
	// (the name inside the container) and a RealPath (the source on disk). Read-only
	// codecs return an error wrapping [ErrNotEditable].
	Serialize(ctx context.Context, entries []*Entry) ([]byte, error)

	// Editable returns true if the codec can serialize entries.
	Editable() bool
}

// rawEntry is a flat record of a path inside a container.
type rawEntry struct {
	name  string
	isDir bool
	size  int64
}

// cleanContainerPath removes leading "./" and "/" as well as trailing slashes.
func cleanContainerPath(p string) string {
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	return p
}

// listLevel converts flat container records into the entries one level below prefix.
func listLevel(records []rawEntry, prefix string) []*Entry {
	prefix = cleanContainerPath(prefix)

	var result []*Entry
	dirs := make(map[string]bool)
	addDir := func(name string) {
		if dirs[name] {
			return
		}
		dirs[name] = true
		result = append(result, &Entry{
			Name:        name,
			Kind:        KindDirectory,
			VirtualPath: joinContainerPath(prefix, name),
			Size:        -1,
		})
	}

	for _, r := range records {
		name := cleanContainerPath(r.name)
		isDir := r.isDir || strings.HasSuffix(r.name, "/")

		// select records below prefix
		rest := name
		if len(prefix) > 0 {
			if !strings.HasPrefix(name, prefix+"/") {
				continue
			}
			rest = name[len(prefix)+1:]
		}
		if len(rest) == 0 {
			continue
		}

		// deeper records synthesize a directory
		first, deeper, _ := strings.Cut(rest, "/")
		if len(deeper) > 0 || isDir {
			addDir(first)
			continue
		}

		result = append(result, &Entry{
			Name:        first,
			Kind:        KindFile,
			VirtualPath: name,
			Size:        r.size,
		})
	}

	SortEntries(result)
	return result
}

// matchesMagicBytes checks if data contains one of the magicBytes at offset.
func matchesMagicBytes(data []byte, offset int, magicBytes [][]byte) bool {
	// check all possible magic bytes until match is found
	for _, mb := range magicBytes {
		// check if header is long enough
		if offset+len(mb) > len(data) {
			continue
		}

		// check for byte match
		if bytes.Equal(mb, data[offset:offset+len(mb)]) {
			return true
		}
	}

	// no match found
	return false
}

// Registry resolves codecs by id, file extension and header signature.
type Registry struct {
	byID            map[string]Codec
	byExt           map[string]Codec
	order           []string // registration order, used for sniffing
	maxHeaderLength int
}

// NewRegistry creates a registry with codecs. A codec registered later replaces an
// earlier codec with the same id or extension.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{
		byID:  make(map[string]Codec),
		byExt: make(map[string]Codec),
	}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry creates a registry with all built-in codecs.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultCodecs()...)
}

// defaultCodecs returns the built-in codecs in sniffing order. Container formats
// come first, so that their signatures win over the single-stream compressions.
func defaultCodecs() []Codec {
	return []Codec{
		newZipCodec(),
		newSevenZipCodec(),
		newRarCodec(),
		newTarCodec(),
		newLZ4Codec(),
		newGZipCodec(),
		newBzip2Codec(),
		newXzCodec(),
		newZstdCodec(),
		newZlibCodec(),
		newSnappyCodec(),
		newBrotliCodec(),
	}
}

// Register adds c to the registry.
func (r *Registry) Register(c Codec) {
	if _, ok := r.byID[c.ID()]; !ok {
		r.order = append(r.order, c.ID())
	}
	r.byID[c.ID()] = c
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}

	// calculate the maximum header length
	for _, mb := range c.MagicBytes() {
		if needs := c.Offset() + len(mb); needs > r.maxHeaderLength {
			r.maxHeaderLength = needs
		}
	}
}

// Lookup returns the codec with id.
func (r *Registry) Lookup(id string) (Codec, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// ForExtension returns the codec for the file extension ext (without dot).
func (r *Registry) ForExtension(ext string) (Codec, bool) {
	if len(ext) == 0 {
		return nil, false
	}
	c, ok := r.byExt[strings.ToLower(ext)]
	return c, ok
}

// ForName returns the codec for the extension of the file name.
func (r *Registry) ForName(name string) (Codec, bool) {
	return r.ForExtension(extensionOf(name))
}

// Sniff returns the first codec whose signature matches header.
func (r *Registry) Sniff(header []byte) (Codec, bool) {
	for _, id := range r.order {
		c := r.byID[id]
		if len(c.MagicBytes()) == 0 {
			continue
		}
		if matchesMagicBytes(header, c.Offset(), c.MagicBytes()) {
			return c, true
		}
	}
	return nil, false
}

// MaxHeaderLength returns the number of header bytes needed to sniff all codecs.
func (r *Registry) MaxHeaderLength() int {
	return r.maxHeaderLength
}

// IDs returns the sorted ids of all registered codecs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
