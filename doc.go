// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package archivenav provides a navigation engine to browse real directories and
// (nested) archives as if they were plain directories.
//
// An [Engine] keeps a [Stack] of visited [Location] values. Loading a root with
// [Engine.Load] and opening entries with [Engine.Open] pushes new locations, while
// opening the [Parent] entry pops them again. Entries inside an archive are only
// listed, never extracted, until their content is actually needed. Extracted
// content is written to temporary directories owned by a [TempStore], which are
// removed again with [Engine.Clean] or [Engine.Close].
//
// Archive formats are handled by a [Codec]. The [DefaultRegistry] contains codecs
// for zip, tar, 7z, rar and the single-stream compressions lz4, gzip, bzip2, xz,
// zstd, zlib, snappy and brotli. Configuration is done with [NewConfig] in an
// option pattern style, and telemetry data is emitted through a [TelemetryHook].
package archivenav
