// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"path"
	"sort"
	"strings"
)

// Kind is the kind of an [Entry].
type Kind int

const (
	// KindFile is an ordinary file.
	KindFile Kind = iota

	// KindDirectory is a directory, either on disk or inside a container.
	KindDirectory

	// KindArchive is a file that is recognized as a supported archive.
	KindArchive
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindArchive:
		return "archive"
	default:
		return "file"
	}
}

// Entry is one row of a listing.
//
// Entries inside a container, that are not extracted yet, carry a VirtualPath and
// no RealPath. Real filesystem objects carry a RealPath and no VirtualPath. Once a
// virtual entry is extracted, its RealPath is set and reused afterwards.
type Entry struct {
	// Name is the display name, the last path segment only
	Name string

	// Kind is the kind of the entry
	Kind Kind

	// VirtualPath is the path of the entry inside its container
	VirtualPath string

	// RealPath is the path on the filesystem
	RealPath string

	// Size is the size in bytes, or -1 if unknown
	Size int64

	// CodecID is the id of the codec, if Kind is KindArchive
	CodecID string
}

// Parent is the sentinel entry to go up one level. It is compared by identity and
// never equal to any other entry.
var Parent = &Entry{Name: "..", Kind: KindDirectory, Size: -1}

// IsParent returns true if e is the [Parent] sentinel.
func (e *Entry) IsParent() bool {
	return e == Parent
}

// IsVirtual returns true if the entry lives inside a container.
func (e *Entry) IsVirtual() bool {
	return len(e.VirtualPath) > 0
}

// IsMaterialized returns true if the entry exists on the filesystem.
func (e *Entry) IsMaterialized() bool {
	return len(e.RealPath) > 0
}

// Extension returns the lower case extension of the entry name without the dot.
// Directories and names that only start with a dot have no extension.
func (e *Entry) Extension() string {
	if e.Kind == KindDirectory {
		return ""
	}
	return extensionOf(e.Name)
}

// String returns the name of the entry.
func (e *Entry) String() string {
	return e.Name
}

// extensionOf returns the lower case extension of name without the dot.
func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// stripExtension removes the last extension from name. Names without extension are
// returned unchanged.
func stripExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name
	}
	return name[:i]
}

// baseName returns the last segment of a slash separated container path. Trailing
// slashes, as used by tar for directories, are ignored.
func baseName(p string) string {
	p = strings.TrimSuffix(p, "/")
	if len(p) == 0 {
		return ""
	}
	return path.Base(p)
}

// SortEntries sorts entries in place: the [Parent] entry first, then directories,
// then everything else, and lexicographically by name within each group.
func SortEntries(entries []*Entry) {
	rank := func(e *Entry) int {
		switch {
		case e.IsParent():
			return 0
		case e.Kind == KindDirectory:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i]), rank(entries[j])
		if ri != rj {
			return ri < rj
		}
		return entries[i].Name < entries[j].Name
	})
}
