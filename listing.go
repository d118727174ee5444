// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// listDirectory lists the real directory dir. The [Parent] entry comes first, archives
// are recognized by their extension and files not matching the configured patterns
// are hidden.
func (e *Engine) listDirectory(ctx context.Context, dir string) ([]*Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pathError(dir, err)
	}

	listing := make([]*Entry, 0, len(dirEntries)+1)
	listing = append(listing, Parent)
	for _, de := range dirEntries {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := filepath.Join(dir, de.Name())
		info, err := entryInfo(p, de)
		if err != nil {
			// vanished or unreadable, skip it
			e.config.Logger().Debug("skip directory entry", "path", p, "error", err)
			continue
		}

		entry := &Entry{Name: de.Name(), RealPath: p, Size: info.Size()}
		switch {
		case info.IsDir():
			entry.Kind = KindDirectory
			entry.Size = -1
		default:
			cl := e.classifier.ClassifyName(de.Name())
			entry.Kind = cl.Kind
			entry.CodecID = cl.CodecID
			if cl.Kind == KindFile && !e.matchesPatterns(de.Name()) {
				continue
			}
		}
		listing = append(listing, entry)
	}

	SortEntries(listing)
	return listing, nil
}

// entryInfo returns the file info of de, following symlinks.
func entryInfo(p string, de fs.DirEntry) (fs.FileInfo, error) {
	if de.Type()&fs.ModeSymlink != 0 {
		return os.Stat(p)
	}
	return de.Info()
}

// listArchive lists the archive location loc. The [Parent] entry comes first, nested
// archives are recognized by their extension and files not matching the configured
// patterns are hidden. Entries extracted before carry their path on disk.
func (e *Engine) listArchive(ctx context.Context, loc *Location) ([]*Entry, error) {
	codec, c, err := e.container(loc)
	if err != nil {
		return nil, err
	}

	entries, err := codec.List(ctx, c, loc.ContainerPath())
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", loc.String(), err)
	}

	listing := make([]*Entry, 0, len(entries)+1)
	listing = append(listing, Parent)
	for _, en := range entries {
		// reuse earlier extractions
		if p, ok := e.extracted[extraction{loc.RealPath(), en.VirtualPath}]; ok {
			en.RealPath = p
		}

		if en.Kind == KindFile {
			if cl := e.classifier.ClassifyName(en.Name); cl.Kind == KindArchive {
				en.Kind = KindArchive
				en.CodecID = cl.CodecID
			} else if !e.matchesPatterns(en.Name, en.VirtualPath) {
				continue
			}
		}
		listing = append(listing, en)
	}

	SortEntries(listing)
	return listing, nil
}

// matchesPatterns returns true if no patterns are configured or one of the names
// matches one of the patterns.
func (e *Engine) matchesPatterns(names ...string) bool {
	patterns := e.config.Patterns()
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		for _, name := range names {
			match, err := doublestar.Match(pattern, name)
			if err != nil {
				e.config.Logger().Debug("invalid pattern", "pattern", pattern, "error", err)
				continue
			}
			if match {
				return true
			}
		}
	}
	return false
}
