// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/btree"
)

// TempStore allocates temporary directories for extracted content and keeps track of
// them until they are removed. Each store uses its own session directory below the
// scratch root and only ever deletes directories it registered itself.
type TempStore struct {
	dir     string                     // session directory
	session string                     // session id
	dirMode fs.FileMode                // mode of created directories
	dirs    *btree.Map[string, string] // id -> directory
	logger  logger
}

// NewTempStore creates a store whose directories are created below root.
func NewTempStore(root string, dirMode fs.FileMode, logger logger) *TempStore {
	session := uuid.NewString()
	return &TempStore{
		dir:     filepath.Join(root, session),
		session: session,
		dirMode: dirMode,
		dirs:    btree.NewMap[string, string](0),
		logger:  logger,
	}
}

// Session returns the session id of the store.
func (s *TempStore) Session() string {
	return s.session
}

// Dir returns the session directory of the store.
func (s *TempStore) Dir() string {
	return s.dir
}

// NewDirectory creates a fresh, uniquely named directory and registers it.
func (s *TempStore) NewDirectory() (string, string, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(dir, s.dirMode.Perm()); err != nil {
		return "", "", fmt.Errorf("cannot create temporary directory: %w", pathError(dir, err))
	}
	s.dirs.Set(id, dir)
	s.logger.Debug("created temporary directory", "id", id, "path", dir)
	return id, dir, nil
}

// Path returns the directory registered for id.
func (s *TempStore) Path(id string) (string, bool) {
	return s.dirs.Get(id)
}

// Owns returns true if p is located inside a directory of this store.
func (s *TempStore) Owns(p string) bool {
	_, ok := s.Owner(p)
	return ok
}

// Owner returns the id of the directory that contains p.
func (s *TempStore) Owner(p string) (string, bool) {
	var owner string
	s.dirs.Scan(func(id string, dir string) bool {
		if p == dir || strings.HasPrefix(p, dir+string(os.PathSeparator)) {
			owner = id
			return false
		}
		return true
	})
	return owner, len(owner) > 0
}

// Owned returns the ids of all registered directories in ascending order.
func (s *TempStore) Owned() []string {
	ids := make([]string, 0, s.dirs.Len())
	s.dirs.Scan(func(id string, _ string) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Len returns the number of registered directories.
func (s *TempStore) Len() int {
	return s.dirs.Len()
}

// Remove deletes the directory registered for id and deregisters it. Unknown ids are
// ignored. If the deletion fails, the directory stays registered and an error
// wrapping [ErrCleanupFailed] is returned.
func (s *TempStore) Remove(id string) error {
	dir, ok := s.dirs.Get(id)
	if !ok {
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("cannot remove temporary directory", "id", id, "path", dir, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrCleanupFailed, dir, err)
	}
	s.dirs.Delete(id)
	s.logger.Debug("removed temporary directory", "id", id, "path", dir)

	// drop the session directory with the last registered directory
	if s.dirs.Len() == 0 {
		if err := os.Remove(s.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cannot remove session directory", "path", s.dir, "error", err)
		}
	}
	return nil
}

// RemoveAll deletes every registered directory. Failures do not stop the removal of
// the remaining directories; the number of directories that could not be removed is
// returned together with the aggregated errors.
func (s *TempStore) RemoveAll() (int, error) {
	var result *multierror.Error
	for _, id := range s.Owned() {
		if err := s.Remove(id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result == nil {
		return 0, nil
	}
	return len(result.Errors), result.ErrorOrNil()
}

// Materialize writes src as the file name into the directory registered for id and
// returns the path of the created file. name is a slash separated path relative to
// the directory; names escaping the directory are rejected. If maxSize >= 0, writing
// more than maxSize bytes fails with [ErrMaxExtractionSizeExceeded].
func (s *TempStore) Materialize(id string, name string, src io.Reader, mode fs.FileMode, maxSize int64) (string, error) {
	target, err := s.resolve(id, name)
	if err != nil {
		return "", err
	}

	// ensure the parent directory exists
	if err := os.MkdirAll(filepath.Dir(target), s.dirMode.Perm()); err != nil {
		return "", fmt.Errorf("cannot create directory for %s: %w", name, err)
	}

	// create dst file, existing files are never overwritten
	dstFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode.Perm())
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dstFile.Close()

	// write data to file
	if _, err := io.Copy(limitWriter(dstFile, maxSize), src); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return target, nil
}

// MaterializeDir creates the directory name inside the directory registered for id.
func (s *TempStore) MaterializeDir(id string, name string) (string, error) {
	target, err := s.resolve(id, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(target, s.dirMode.Perm()); err != nil {
		return "", fmt.Errorf("cannot create directory %s: %w", name, err)
	}
	return target, nil
}

// resolve joins name to the directory registered for id and checks for path traversal.
func (s *TempStore) resolve(id string, name string) (string, error) {
	dir, ok := s.dirs.Get(id)
	if !ok {
		return "", fmt.Errorf("temporary directory %s is not owned by this store", id)
	}

	// convert name to platform specific path
	if len(name) == 0 {
		return "", fmt.Errorf("cannot create file without name")
	}
	parts := strings.Split(name, "/")
	rel := filepath.Join(parts...)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path traversal detected: %s", name)
	}
	return filepath.Join(dir, rel), nil
}
