// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-multierror"
)

// Action tells the caller of [Engine.Open] what happened.
type Action int

const (
	// ActionNone means the entry could not be opened in the current state. Nothing changed.
	ActionNone Action = iota

	// ActionListed means a new location is shown.
	ActionListed

	// ActionLeftRoot means the parent of the loaded root was requested. The engine does
	// not navigate there; [Result.Path] names the enclosing directory.
	ActionLeftRoot

	// ActionOpenExternal means the entry is an ordinary file. [Result.Path] is its path
	// on disk, ready to be handed to an external application.
	ActionOpenExternal
)

// String returns the name of the action.
func (a Action) String() string {
	switch a {
	case ActionListed:
		return "listed"
	case ActionLeftRoot:
		return "left-root"
	case ActionOpenExternal:
		return "open-external"
	default:
		return "none"
	}
}

// Snapshot is the observable state of an [Engine].
type Snapshot struct {
	// Location is the current location, nil if nothing is loaded
	Location *Location

	// Listing is the content of the current location
	Listing []*Entry

	// Breadcrumb are the display names from the enclosing directory of the root
	// down to the current location
	Breadcrumb []string

	// LastError is the error of the last failed operation
	LastError error
}

// Result is the outcome of [Engine.Open].
type Result struct {
	Action   Action
	Path     string
	Snapshot *Snapshot
}

// extraction identifies an entry inside the container file at container.
type extraction struct {
	container   string
	virtualPath string
}

// Engine browses directories and archives, including archives nested in archives.
// An Engine holds one navigation session and is not safe for concurrent use.
type Engine struct {
	config     *Config
	registry   *Registry
	classifier *Classifier
	stack      Stack
	store      *TempStore
	cache      *lru.Cache[string, *Container]
	extracted  map[extraction]string // materialized entries -> path on disk
	listing    []*Entry
	lastErr    error
}

// New creates an engine configured by opts.
func New(opts ...ConfigOption) *Engine {
	cfg := NewConfig(opts...)

	registry := DefaultRegistry()
	for _, c := range cfg.Codecs() {
		registry.Register(c)
	}

	// size is always positive, see WithCacheSize
	cache, _ := lru.New[string, *Container](cfg.CacheSize())

	return &Engine{
		config:     cfg,
		registry:   registry,
		classifier: NewClassifier(registry),
		store:      NewTempStore(cfg.ScratchRoot(), cfg.CustomCreateDirMode(), cfg.Logger()),
		cache:      cache,
		extracted:  make(map[extraction]string),
	}
}

// Config returns the configuration of the engine.
func (e *Engine) Config() *Config {
	return e.config
}

// Registry returns the codec registry of the engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Store returns the temporary directory store of the engine.
func (e *Engine) Store() *TempStore {
	return e.store
}

// Depth returns the number of locations on the navigation stack.
func (e *Engine) Depth() int {
	return e.stack.Len()
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() *Snapshot {
	listing := make([]*Entry, len(e.listing))
	copy(listing, e.listing)
	return &Snapshot{
		Location:   e.stack.Peek(),
		Listing:    listing,
		Breadcrumb: e.breadcrumb(),
		LastError:  e.lastErr,
	}
}

// breadcrumb returns the stack names with the directory enclosing the root prepended.
func (e *Engine) breadcrumb() []string {
	names := e.stack.Names()
	bottom := e.stack.Bottom()
	if bottom == nil {
		return names
	}
	if parent := filepath.Dir(bottom.RealPath()); parent != bottom.RealPath() {
		names = append([]string{filepath.Base(parent)}, names...)
	}
	return names
}

// Find returns the entry of the current listing named name, or nil.
func (e *Engine) Find(name string) *Entry {
	for _, en := range e.listing {
		if en.Name == name {
			return en
		}
	}
	return nil
}

// Load makes path the new root. path is either a directory or a supported archive.
// On success, the previous navigation state is discarded and its temporary
// directories are removed. On failure, the previous state is kept.
func (e *Engine) Load(ctx context.Context, path string) (*Snapshot, error) {
	start := time.Now()
	td := &TelemetryData{Operation: OperationLoad}
	defer e.emit(ctx, td, start)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, e.fail(td, fmt.Errorf("cannot load %s: %w", path, err))
	}

	cl, err := e.classifier.Classify(abs)
	if err != nil {
		return nil, e.fail(td, fmt.Errorf("cannot load %s: %w", path, err))
	}

	// compute the new state before touching the old one
	var (
		loc     *Location
		listing []*Entry
	)
	switch cl.Kind {
	case KindDirectory:
		loc = newDirectoryLocation(abs)
		listing, err = e.listDirectory(ctx, abs)
	case KindArchive:
		td.CodecID = cl.CodecID
		loc = newArchiveLocation(abs, "", cl.CodecID, "")
		listing, err = e.listArchive(ctx, loc)
		if c, ok := e.cache.Peek(abs); ok {
			td.InputSize = int64(len(c.Data))
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownType, path)
	}
	if err != nil {
		e.cache.Remove(abs)
		return nil, e.fail(td, fmt.Errorf("cannot load %s: %w", path, err))
	}

	// reset the session
	if failed, err := e.store.RemoveAll(); err != nil {
		td.CleanupFailures = int64(failed)
		e.config.Logger().Warn("cannot remove temporary directories of previous root", "failed", failed, "error", err)
	}
	root, cached := e.cache.Peek(abs)
	e.cache.Purge()
	if cached {
		e.cache.Add(abs, root)
	}
	e.stack.Clear()
	e.forgetRemoved(listing)

	e.stack.Push(loc)
	e.listing = listing
	e.lastErr = nil
	e.config.Logger().Info("loaded root", "path", abs, "kind", cl.Kind, "codec", cl.CodecID, "entries", len(listing)-1)
	return e.Snapshot(), nil
}

// Open opens entry, which must be part of the current listing, and reports what
// happened. Directories and archives are entered, [Parent] goes up one level and
// ordinary files are materialized for an external application. Failures leave the
// navigation state unchanged.
func (e *Engine) Open(ctx context.Context, entry *Entry) (*Result, error) {
	start := time.Now()
	td := &TelemetryData{Operation: OperationOpen}
	defer e.emit(ctx, td, start)

	top := e.stack.Peek()
	if entry == nil || top == nil {
		return e.result(ActionNone, ""), nil
	}

	switch {
	case entry.IsParent():
		return e.openParent(ctx, td)

	// real directory
	case entry.Kind == KindDirectory && !entry.IsVirtual():
		if !entry.IsMaterialized() {
			return e.result(ActionNone, ""), nil
		}
		loc := newDirectoryLocation(entry.RealPath)
		listing, err := e.listDirectory(ctx, entry.RealPath)
		if err != nil {
			return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
		}
		return e.commit(loc, listing), nil

	// virtual directory
	case entry.Kind == KindDirectory:
		if !top.IsArchive() {
			return e.result(ActionNone, ""), nil
		}
		td.CodecID = top.CodecID()
		loc := top.child(entry.Name)
		listing, err := e.listArchive(ctx, loc)
		if err != nil {
			return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
		}
		return e.commit(loc, listing), nil

	case e.isArchiveEntry(entry):
		return e.openArchive(ctx, entry, td)

	// ordinary file
	default:
		path, err := e.extractToTemp(ctx, entry, td)
		if err != nil {
			return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
		}
		return e.result(ActionOpenExternal, path), nil
	}
}

// openParent goes up one level. At the root, the stack is kept and the caller is
// told to leave.
func (e *Engine) openParent(ctx context.Context, td *TelemetryData) (*Result, error) {
	if e.stack.Len() <= 1 {
		enclosing := filepath.Dir(e.stack.Bottom().RealPath())
		e.config.Logger().Debug("left root", "enclosing", enclosing)
		return e.result(ActionLeftRoot, enclosing), nil
	}

	prev := e.stack.Pop()
	top := e.stack.Peek()
	listing, err := e.render(ctx, top)
	if err != nil {
		e.stack.Push(prev)
		return nil, e.fail(td, fmt.Errorf("cannot return to %s: %w", top.Name(), err))
	}
	e.listing = listing
	e.lastErr = nil
	return e.result(ActionListed, ""), nil
}

// openArchive enters the archive entry. Entries that are not on disk yet are
// extracted into a fresh temporary directory first.
func (e *Engine) openArchive(ctx context.Context, entry *Entry, td *TelemetryData) (*Result, error) {
	codecID := entry.CodecID
	if len(codecID) == 0 {
		codecID = e.classifier.ClassifyName(entry.Name).CodecID
	}

	// already on disk, re-enter
	if entry.IsMaterialized() {
		if len(codecID) == 0 {
			cl, err := e.classifier.Classify(entry.RealPath)
			if err != nil {
				return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
			}
			if cl.Kind != KindArchive {
				return e.result(ActionNone, ""), nil
			}
			codecID = cl.CodecID
		}
		td.CodecID = codecID
		tempID, _ := e.store.Owner(entry.RealPath)
		loc := newArchiveLocation(entry.RealPath, "", codecID, tempID)
		listing, err := e.listArchive(ctx, loc)
		if err != nil {
			return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
		}
		return e.commit(loc, listing), nil
	}

	if !entry.IsVirtual() {
		return e.result(ActionNone, ""), nil
	}

	// extract the nested archive first
	td.CodecID = codecID
	tempID, path, err := e.materialize(ctx, e.stack.Peek(), entry, td)
	if err != nil {
		return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
	}
	loc := newArchiveLocation(path, "", codecID, tempID)
	listing, err := e.listArchive(ctx, loc)
	if err != nil {
		e.rollback(tempID, entry)
		return nil, e.fail(td, fmt.Errorf("cannot open %s: %w", entry.Name, err))
	}
	return e.commit(loc, listing), nil
}

// ExtractToTemp materializes entry in a fresh temporary directory and returns its
// path. Entries that are already on disk are returned unchanged. Virtual directories
// are extracted with all their descendants.
func (e *Engine) ExtractToTemp(ctx context.Context, entry *Entry) (string, error) {
	start := time.Now()
	td := &TelemetryData{Operation: OperationExtract}
	defer e.emit(ctx, td, start)

	path, err := e.extractToTemp(ctx, entry, td)
	if err != nil {
		return "", e.fail(td, err)
	}
	return path, nil
}

// extractToTemp implements [Engine.ExtractToTemp].
func (e *Engine) extractToTemp(ctx context.Context, entry *Entry, td *TelemetryData) (string, error) {
	if entry == nil || entry.IsParent() {
		return "", fmt.Errorf("%w: nothing to extract", ErrEntryNotFound)
	}

	// idempotent
	if entry.IsMaterialized() {
		return entry.RealPath, nil
	}

	top := e.stack.Peek()
	if !entry.IsVirtual() || top == nil || !top.IsArchive() {
		return "", fmt.Errorf("%w: %s is not inside an open container", ErrEntryNotFound, entry.Name)
	}
	td.CodecID = top.CodecID()

	_, path, err := e.materialize(ctx, top, entry, td)
	if err != nil {
		return "", fmt.Errorf("cannot extract %s: %w", entry.Name, err)
	}
	return path, nil
}

// materialize extracts the virtual entry from the container of loc into a new
// temporary directory and records the path on entry. The directory is removed again
// if the extraction fails.
func (e *Engine) materialize(ctx context.Context, loc *Location, entry *Entry, td *TelemetryData) (string, string, error) {
	codec, c, err := e.container(loc)
	if err != nil {
		return "", "", err
	}
	td.InputSize = int64(len(c.Data))

	tempID, _, err := e.store.NewDirectory()
	if err != nil {
		return "", "", err
	}

	var path string
	if entry.Kind == KindDirectory {
		path, err = e.materializeTree(ctx, codec, c, tempID, entry.VirtualPath, entry.Name, td)
	} else {
		path, err = e.materializeFile(ctx, codec, c, tempID, entry.VirtualPath, entry.Name, td)
	}
	if err != nil {
		if rerr := e.store.Remove(tempID); rerr != nil {
			e.config.Logger().Warn("cannot roll back temporary directory", "id", tempID, "error", rerr)
		}
		return "", "", err
	}

	entry.RealPath = path
	e.extracted[extraction{loc.RealPath(), entry.VirtualPath}] = path
	e.config.Logger().Debug("extracted entry", "entry", entry.VirtualPath, "path", path)
	return tempID, path, nil
}

// materializeFile writes the container entry at virtualPath as name.
func (e *Engine) materializeFile(ctx context.Context, codec Codec, c *Container, tempID, virtualPath, name string, td *TelemetryData) (string, error) {
	data, err := codec.Extract(ctx, c, virtualPath)
	if err != nil {
		return "", err
	}
	if err := e.config.CheckExtractionSize(td.ExtractionSize + int64(len(data))); err != nil {
		return "", fmt.Errorf("%w: %s", err, virtualPath)
	}
	path, err := e.store.Materialize(tempID, name, bytes.NewReader(data), e.config.CustomExtractFileMode(), e.config.MaxExtractionSize())
	if err != nil {
		return "", err
	}
	td.ExtractedEntries++
	td.ExtractionSize += int64(len(data))
	return path, nil
}

// materializeTree writes the virtual directory at prefix and all its descendants as
// the directory name.
func (e *Engine) materializeTree(ctx context.Context, codec Codec, c *Container, tempID, prefix, name string, td *TelemetryData) (string, error) {
	root, err := e.store.MaterializeDir(tempID, name)
	if err != nil {
		return "", err
	}

	var walk func(prefix, rel string) error
	walk = func(prefix, rel string) error {
		entries, err := codec.List(ctx, c, prefix)
		if err != nil {
			return err
		}
		for _, en := range entries {
			// check if context is canceled
			if err := ctx.Err(); err != nil {
				return err
			}
			target := rel + "/" + en.Name
			if en.Kind == KindDirectory {
				if _, err := e.store.MaterializeDir(tempID, target); err != nil {
					return err
				}
				if err := walk(en.VirtualPath, target); err != nil {
					return err
				}
				continue
			}
			if _, err := e.materializeFile(ctx, codec, c, tempID, en.VirtualPath, target, td); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(prefix, name); err != nil {
		return "", err
	}
	return root, nil
}

// rollback removes the temporary directory of a failed open and forgets the path on entry.
func (e *Engine) rollback(tempID string, entry *Entry) {
	e.cache.Remove(entry.RealPath)
	entry.RealPath = ""
	if err := e.store.Remove(tempID); err != nil {
		e.config.Logger().Warn("cannot roll back temporary directory", "id", tempID, "error", err)
	}
	e.forgetRemoved(nil)
}

// Refresh lists the current location again.
func (e *Engine) Refresh(ctx context.Context) (*Snapshot, error) {
	top := e.stack.Peek()
	if top == nil {
		return e.Snapshot(), nil
	}
	listing, err := e.render(ctx, top)
	if err != nil {
		e.lastErr = err
		return nil, fmt.Errorf("cannot refresh %s: %w", top.Name(), err)
	}
	e.listing = listing
	e.lastErr = nil
	return e.Snapshot(), nil
}

// Clean removes all temporary directories of this engine. Directories that cannot be
// removed stay registered for the next clean; their number is returned together with
// the aggregated error. Locations backed by removed directories are left, the engine
// moves down to the deepest location that is still available.
func (e *Engine) Clean(ctx context.Context) (int, error) {
	start := time.Now()
	td := &TelemetryData{Operation: OperationClean}
	defer e.emit(ctx, td, start)

	failed, err := e.store.RemoveAll()
	td.CleanupFailures = int64(failed)
	if err != nil {
		e.config.Logger().Warn("clean incomplete", "failed", failed, "error", err)
	}
	e.forgetRemoved(e.listing)

	// leave locations whose container is gone
	if depth := e.availableDepth(); depth < e.stack.Len() {
		e.stack.Truncate(depth)
		top := e.stack.Peek()
		listing, rerr := e.render(ctx, top)
		if rerr != nil {
			err = multierror.Append(err, fmt.Errorf("cannot return to %s: %w", top.Name(), rerr))
			e.lastErr = err
		} else {
			e.listing = listing
			e.lastErr = nil
		}
		e.config.Logger().Info("left removed locations", "location", top.String(), "depth", depth)
	}

	td.LastError = err
	return failed, err
}

// Close cleans up and resets the engine to its initial state.
func (e *Engine) Close(ctx context.Context) (int, error) {
	e.stack.Clear()
	e.listing = nil
	failed, err := e.Clean(ctx)
	e.cache.Purge()
	e.lastErr = nil
	return failed, err
}

// availableDepth returns the number of stack locations from the bottom, whose
// temporary directory is still owned by the store.
func (e *Engine) availableDepth() int {
	for i := 0; i < e.stack.Len(); i++ {
		id := e.stack.At(i).TempID()
		if len(id) == 0 {
			continue
		}
		if _, ok := e.store.Path(id); !ok {
			return i
		}
	}
	return e.stack.Len()
}

// forgetRemoved drops all extractions, cached containers and entry paths, that point
// into temporary directories no longer owned by the store.
func (e *Engine) forgetRemoved(listing []*Entry) {
	for key, p := range e.extracted {
		if !e.store.Owns(p) {
			delete(e.extracted, key)
		}
	}
	for _, key := range e.cache.Keys() {
		if strings.HasPrefix(key, e.store.Dir()+string(os.PathSeparator)) && !e.store.Owns(key) {
			e.cache.Remove(key)
		}
	}
	for _, en := range listing {
		if en.IsVirtual() && en.IsMaterialized() && !e.store.Owns(en.RealPath) {
			en.RealPath = ""
		}
	}
}

// render lists loc.
func (e *Engine) render(ctx context.Context, loc *Location) ([]*Entry, error) {
	if loc.IsArchive() {
		return e.listArchive(ctx, loc)
	}
	return e.listDirectory(ctx, loc.RealPath())
}

// commit pushes loc and shows listing.
func (e *Engine) commit(loc *Location, listing []*Entry) *Result {
	e.stack.Push(loc)
	e.listing = listing
	e.lastErr = nil
	e.config.Logger().Debug("entered location", "location", loc.String(), "depth", e.stack.Len())
	return e.result(ActionListed, "")
}

// result creates a [Result] with the current state.
func (e *Engine) result(action Action, path string) *Result {
	return &Result{Action: action, Path: path, Snapshot: e.Snapshot()}
}

// fail records err as the last error.
func (e *Engine) fail(td *TelemetryData, err error) error {
	e.lastErr = err
	td.LastError = err
	e.config.Logger().Error("operation failed", "operation", td.Operation, "kind", ErrorKind(err), "error", err)
	return err
}

// emit passes td to the telemetry hook.
func (e *Engine) emit(ctx context.Context, td *TelemetryData, start time.Time) {
	td.Duration = time.Since(start)
	td.TempDirs = int64(e.store.Len())
	e.config.TelemetryHook()(ctx, td)
}

// isArchiveEntry returns true if entry is a supported archive.
func (e *Engine) isArchiveEntry(entry *Entry) bool {
	if entry.Kind == KindArchive {
		return true
	}
	return entry.Kind == KindFile && e.classifier.ClassifyName(entry.Name).Kind == KindArchive
}

// container returns the codec and the loaded container of the archive location loc.
func (e *Engine) container(loc *Location) (Codec, *Container, error) {
	codec, ok := e.registry.Lookup(loc.CodecID())
	if !ok {
		return nil, nil, fmt.Errorf("%w: codec %q", ErrUnknownType, loc.CodecID())
	}
	c, err := e.loadContainer(loc.RealPath())
	if err != nil {
		return nil, nil, err
	}
	return codec, c, nil
}

// loadContainer reads the container file at realPath, or returns it from the cache.
func (e *Engine) loadContainer(realPath string) (*Container, error) {
	if c, ok := e.cache.Get(realPath); ok {
		return c, nil
	}

	f, err := os.Open(realPath)
	if err != nil {
		return nil, pathError(realPath, err)
	}
	defer f.Close()

	data, err := readAllLimited(f, e.config.MaxInputSize(), ErrMaxInputSizeExceeded)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", realPath, err)
	}

	c := &Container{
		Name:         filepath.Base(realPath),
		Data:         data,
		MaxEntrySize: e.config.MaxExtractionSize(),
	}
	e.cache.Add(realPath, c)
	return c, nil
}
