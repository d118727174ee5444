// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config provides a configuration struct and options to adjust the configuration.
//
// The configuration struct holds all configuration options for an [Engine].
// The configuration options can be adjusted using the option pattern style.
type Config struct {
	// cacheSize is the number of loaded containers kept in memory
	cacheSize int

	// codecs are additional codecs, that are registered on top of the default codecs
	codecs []Codec

	// customCreateDirMode is the file mode for created temporary directories (respecting umask)
	customCreateDirMode fs.FileMode

	// customExtractFileMode is the file mode for extracted files (respecting umask)
	customExtractFileMode fs.FileMode

	// logger stream for the engine
	logger logger

	// maxExtractionSize is the maximum size of a single extracted entry.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxInputSize is the maximum size of a container that is loaded into memory.
	// Set value to -1 to disable the check.
	maxInputSize int64

	// patterns is a list of doublestar patterns, that files need to match to be listed
	patterns []string

	// scratchRoot is the directory below which temporary directories are created
	scratchRoot string

	// telemetryHook is a function to consume telemetry data after every engine operation
	telemetryHook TelemetryHook
}

// CacheSize returns the number of loaded containers kept in memory.
func (c *Config) CacheSize() int {
	return c.cacheSize
}

// CheckExtractionSize checks if size exceeds the configured maximum. If the maximum is exceeded,
// a [ErrMaxExtractionSizeExceeded] error is returned.
func (c *Config) CheckExtractionSize(size int64) error {

	// check if disabled
	if c.MaxExtractionSize() == -1 {
		return nil
	}

	// check value
	if size > c.MaxExtractionSize() {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// Codecs returns the additionally registered codecs.
func (c *Config) Codecs() []Codec {
	return c.codecs
}

// CustomCreateDirMode returns the file mode for created temporary directories.
// (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// CustomExtractFileMode returns the file mode for extracted files.
// (respecting umask)
func (c *Config) CustomExtractFileMode() fs.FileMode {
	return c.customExtractFileMode
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxExtractionSize returns the maximum size of a single extracted entry.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxInputSize returns the maximum size of a container loaded into memory.
func (c *Config) MaxInputSize() int64 {
	return c.maxInputSize
}

// Patterns returns a list of doublestar patterns that files need to match to be listed.
// Directories and archives are always listed.
func (c *Config) Patterns() []string {
	return c.patterns
}

// ScratchRoot returns the directory below which temporary directories are created.
func (c *Config) ScratchRoot() string {
	return c.scratchRoot
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return defaultTelemetryHook
	}
	return c.telemetryHook
}

const (
	defaultCacheSize             = 8             // keep 8 containers in memory
	defaultCustomCreateDirMode   = 0750          // default directory permissions rwxr-x---
	defaultCustomExtractFileMode = 0640          // default file permissions rw-r-----
	defaultMaxExtractionSize     = 1 << (10 * 3) // 1 Gb
	defaultMaxInputSize          = 1 << (10 * 3) // 1 Gb
	defaultScratchDirName        = "archivenav"  // below os.TempDir()
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, d *TelemetryData) {
		// noop
	}
)

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {

	// setup default values
	config := &Config{
		cacheSize:             defaultCacheSize,
		customCreateDirMode:   defaultCustomCreateDirMode,
		customExtractFileMode: defaultCustomExtractFileMode,
		logger:                defaultLogger,
		maxExtractionSize:     defaultMaxExtractionSize,
		maxInputSize:          defaultMaxInputSize,
		scratchRoot:           filepath.Join(os.TempDir(), defaultScratchDirName),
		telemetryHook:         defaultTelemetryHook,
	}

	// Loop through each option
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// WithCacheSize options pattern function to set the number of loaded containers that
// are kept in memory. Values below 1 are ignored.
func WithCacheSize(size int) ConfigOption {
	return func(c *Config) {
		if size > 0 {
			c.cacheSize = size
		}
	}
}

// WithCodecs options pattern function to register additional codecs. A codec with
// the id of a default codec replaces the default.
func WithCodecs(codecs ...Codec) ConfigOption {
	return func(c *Config) {
		c.codecs = append(c.codecs, codecs...)
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created temporary directories. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithCustomExtractFileMode options pattern function to set the file mode for
// extracted files. (respecting umask)
func WithCustomExtractFileMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customExtractFileMode = mode
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMaxExtractionSize options pattern function to set the maximum size of a
// single extracted entry. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxInputSize options pattern function to set the maximum size of a container,
// that is loaded into memory. (-1 to disable check)
func WithMaxInputSize(maxInputSize int64) ConfigOption {
	return func(c *Config) {
		c.maxInputSize = maxInputSize
	}
}

// WithPatterns options pattern function to set doublestar patterns, that files need to
// match to be listed. Directories and archives are always listed.
func WithPatterns(pattern ...string) ConfigOption {
	return func(c *Config) {
		c.patterns = append(c.patterns, pattern...)
	}
}

// WithScratchRoot options pattern function to set the directory below which
// temporary directories are created.
func WithScratchRoot(root string) ConfigOption {
	return func(c *Config) {
		if len(root) > 0 {
			c.scratchRoot = root
		}
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which is called
// after every engine operation.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}
