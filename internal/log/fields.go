// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldMediaID       = "media_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Media fields
	FieldOriginalPath = "original_path"
	FieldNewPath      = "new_path"
	FieldMediaType    = "media_type"
	FieldTMDBID       = "tmdb_id"

	// State fields
	FieldOldStatus = "old_status"
	FieldNewStatus = "new_status"

	// Error taxonomy
	FieldErrorKind = "error_kind"
)
