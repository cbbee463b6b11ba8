package core

import "errors"

// Sentinel errors for the failure taxonomy. Per-query errors are caught
// at the engine boundary and converted into a well-formed QueryResult;
// only ErrConfiguration is allowed to be fatal, and only at startup.
var (
	// ErrBackendUnavailable marks an adapter whose underlying service
	// failed, timed out, or returned no usable content.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNoRelevantContent marks a retrieval pass where nothing cleared
	// the relevance threshold. It is an answer, not a failure.
	ErrNoRelevantContent = errors.New("no relevant content above threshold")

	// ErrConfiguration marks missing or invalid external-service
	// configuration detected at startup.
	ErrConfiguration = errors.New("invalid configuration")
)
