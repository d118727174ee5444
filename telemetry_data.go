// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import (
	"context"
	"encoding/json"
	"time"
)

// Operations reported in [TelemetryData].
const (
	OperationLoad    = "load"
	OperationOpen    = "open"
	OperationExtract = "extract"
	OperationClean   = "clean"
	OperationPack    = "pack"
)

// TelemetryData holds the telemetry data of one engine operation.
type TelemetryData struct {
	// Operation is the engine operation, e.g. "extract"
	Operation string `json:"operation"`

	// CodecID is the id of the codec involved, if any
	CodecID string `json:"codec_id"`

	// Duration is the time the operation took
	Duration time.Duration `json:"duration"`

	// InputSize is the size of the loaded container
	InputSize int64 `json:"input_size"`

	// ExtractedEntries is the number of entries written to disk
	ExtractedEntries int64 `json:"extracted_entries"`

	// ExtractionSize is the number of bytes written to disk
	ExtractionSize int64 `json:"extraction_size"`

	// TempDirs is the number of temporary directories owned after the operation
	TempDirs int64 `json:"temp_dirs"`

	// CleanupFailures is the number of temporary directories that could not be removed
	CleanupFailures int64 `json:"cleanup_failures"`

	// LastError is the error the operation failed with
	LastError error `json:"last_error"`
}

// String returns a string representation of [TelemetryData].
func (m TelemetryData) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (m TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if m.LastError != nil {
		lastError = m.LastError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastError string `json:"last_error"`
		*Alias
	}{
		LastError: lastError,
		Alias:     (*Alias)(&m),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after an engine operation has finished, which can be used to submit the
// [TelemetryData] to a telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// Equals returns true if the given [TelemetryData] is equal to the receiver.
// Durations and errors are not compared.
func (td *TelemetryData) Equals(other *TelemetryData) bool {
	if td == nil && other == nil {
		return true
	}
	if td == nil || other == nil {
		return false
	}
	return td.Operation == other.Operation &&
		td.CodecID == other.CodecID &&
		td.InputSize == other.InputSize &&
		td.ExtractedEntries == other.ExtractedEntries &&
		td.ExtractionSize == other.ExtractionSize &&
		td.TempDirs == other.TempDirs &&
		td.CleanupFailures == other.CleanupFailures
}
