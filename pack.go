// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/hashicorp/go-multierror"
)

// Pack writes the files and directories at paths into the new archive dst, encoded
// by the editable codec codecID. Directories are added with all their content,
// named relative to their parent. An existing dst is not overwritten.
func (e *Engine) Pack(ctx context.Context, codecID string, dst string, paths ...string) error {
	start := time.Now()
	td := &TelemetryData{Operation: OperationPack, CodecID: codecID}
	defer e.emit(ctx, td, start)

	codec, ok := e.registry.Lookup(codecID)
	if !ok {
		return e.fail(td, fmt.Errorf("%w: codec %q", ErrUnknownType, codecID))
	}
	if !codec.Editable() {
		return e.fail(td, fmt.Errorf("%w: %s", ErrNotEditable, codecID))
	}

	entries, err := e.collect(ctx, paths)
	if err != nil {
		return e.fail(td, fmt.Errorf("cannot collect files: %w", err))
	}

	data, err := codec.Serialize(ctx, entries)
	if err != nil {
		return e.fail(td, fmt.Errorf("cannot pack %s: %w", dst, err))
	}

	if err := writeNewFile(dst, bytes.NewReader(data), e.config.CustomExtractFileMode()); err != nil {
		return e.fail(td, err)
	}

	td.ExtractedEntries = int64(len(entries))
	td.ExtractionSize = int64(len(data))
	e.config.Logger().Info("packed archive", "path", dst, "codec", codecID, "entries", len(entries), "size", len(data))
	return nil
}

// collect converts paths into entries. VirtualPath is the name inside the archive,
// RealPath the source on disk. The result is sorted by VirtualPath.
func (e *Engine) collect(ctx context.Context, paths []string) ([]*Entry, error) {
	var (
		mu      sync.Mutex
		entries []*Entry
	)
	add := func(en *Entry) {
		mu.Lock()
		defer mu.Unlock()
		entries = append(entries, en)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		stat, err := os.Stat(abs)
		if err != nil {
			return nil, pathError(p, err)
		}
		base := filepath.Base(abs)

		if !stat.IsDir() {
			add(&Entry{Name: base, Kind: KindFile, VirtualPath: base, RealPath: abs, Size: stat.Size()})
			continue
		}

		add(&Entry{Name: base, Kind: KindDirectory, VirtualPath: base, RealPath: abs, Size: -1})
		parent := filepath.Dir(abs)
		conf := fastwalk.Config{Follow: false}
		err = fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
			// check if context is canceled
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				return err
			}
			if path == abs {
				return nil
			}

			rel, err := filepath.Rel(parent, path)
			if err != nil {
				return err
			}
			en := &Entry{Name: d.Name(), VirtualPath: filepath.ToSlash(rel), RealPath: path, Size: -1}
			switch {
			case d.IsDir():
				en.Kind = KindDirectory
			case d.Type().IsRegular():
				en.Kind = KindFile
			default:
				e.config.Logger().Debug("skip unsupported file", "path", path, "type", d.Type().String())
				return nil
			}
			add(en)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].VirtualPath < entries[j].VirtualPath
	})
	return entries, nil
}

// writeNewFile writes src into the new file dst. An existing dst is not overwritten
// and a partially written dst is removed again.
func writeNewFile(dst string, src io.Reader, mode fs.FileMode) error {
	// create dst file, existing files are never overwritten
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode.Perm())
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dst, err)
	}

	_, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(dst); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	return nil
}
