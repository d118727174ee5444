// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"fmt"
	"path"
	"path/filepath"
)

// LocationKind is the kind of a [Location].
type LocationKind int

const (
	// LocationDirectory is a real directory on the filesystem.
	LocationDirectory LocationKind = iota

	// LocationArchive is a point inside a container.
	LocationArchive
)

// String returns the name of the location kind.
func (k LocationKind) String() string {
	if k == LocationArchive {
		return "archive"
	}
	return "directory"
}

// Location describes one level of the navigation history. Locations are immutable;
// navigating creates a new Location.
type Location struct {
	kind          LocationKind
	realPath      string
	containerPath string
	codecID       string
	tempID        string
}

// newDirectoryLocation creates a location for the real directory at realPath.
func newDirectoryLocation(realPath string) *Location {
	return &Location{kind: LocationDirectory, realPath: realPath}
}

// newArchiveLocation creates a location at containerPath inside the container at
// realPath, that is decoded by the codec with id codecID. tempID is the id of the
// temporary directory the container was extracted to, if any.
func newArchiveLocation(realPath, containerPath, codecID, tempID string) *Location {
	return &Location{
		kind:          LocationArchive,
		realPath:      realPath,
		containerPath: containerPath,
		codecID:       codecID,
		tempID:        tempID,
	}
}

// Kind returns the kind of the location.
func (l *Location) Kind() LocationKind {
	return l.kind
}

// RealPath returns the real file or directory this level is backed by. It stays
// constant while navigating inside one archive.
func (l *Location) RealPath() string {
	return l.realPath
}

// ContainerPath returns the path prefix inside the container, empty for the archive
// root. It is meaningless for directory locations.
func (l *Location) ContainerPath() string {
	return l.containerPath
}

// CodecID returns the id of the codec for archive locations and an empty string for
// directory locations.
func (l *Location) CodecID() string {
	return l.codecID
}

// TempID returns the id of the temporary directory backing RealPath, or an empty
// string if RealPath was not extracted by the engine.
func (l *Location) TempID() string {
	return l.tempID
}

// IsArchive returns true if the location is inside a container.
func (l *Location) IsArchive() bool {
	return l.kind == LocationArchive
}

// IsArchiveRoot returns true if the location is the root of a container.
func (l *Location) IsArchiveRoot() bool {
	return l.kind == LocationArchive && len(l.containerPath) == 0
}

// Name returns the display name of the location.
func (l *Location) Name() string {
	if l.IsArchive() && len(l.containerPath) > 0 {
		return path.Base(l.containerPath)
	}
	return filepath.Base(l.realPath)
}

// child returns the location of the virtual directory name below l.
func (l *Location) child(name string) *Location {
	return newArchiveLocation(l.realPath, joinContainerPath(l.containerPath, name), l.codecID, l.tempID)
}

// String returns a description of the location.
func (l *Location) String() string {
	if l.IsArchive() {
		return fmt.Sprintf("%s [%s:/%s]", l.realPath, l.codecID, l.containerPath)
	}
	return l.realPath
}

// joinContainerPath joins a container path prefix and a name.
func joinContainerPath(prefix, name string) string {
	if len(prefix) == 0 {
		return name
	}
	return prefix + "/" + name
}
