// Package errors: centralized error code definitions for the CultureMech
// pipeline. Codes are partitioned by pipeline subsystem, following the same
// one-block-per-domain convention the platform uses elsewhere.
package errors

import "net/http"

// ErrorCode is a typed error code used throughout the CultureMech pipeline.
type ErrorCode int

// ─────────────────────────────────────────────────────────────────────────────
// General / cross-cutting  (1xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeOK             ErrorCode = 0
	CodeUnknown        ErrorCode = 10000
	CodeInvalidParam   ErrorCode = 10001
	CodeNotFound       ErrorCode = 10002
	CodeConflict       ErrorCode = 10003
	CodeInternal       ErrorCode = 10004 // fatal, exit 2
	CodeNotImplemented ErrorCode = 10005
)

// ─────────────────────────────────────────────────────────────────────────────
// Layer store / filesystem  (2xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeImmutableLayer is returned when a write targets Layer 1 (raw),
	// which is immutable after fetch.
	CodeImmutableLayer ErrorCode = 20001

	// CodeLayerCollision is returned when a Layer-4 write collides with an
	// existing, differently-fingerprinted record at the same key.
	CodeLayerCollision ErrorCode = 20002

	// CodeQuarantined is returned when a Layer-3 file fails repeated schema
	// repair and is moved to the quarantine/ sibling directory.
	CodeQuarantined ErrorCode = 20003
)

// ─────────────────────────────────────────────────────────────────────────────
// Normalization / dictionaries  (3xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeNormalizationError marks an internal invariant violation in the
	// normalizer; it must never be raised for malformed input.
	CodeNormalizationError ErrorCode = 30001
)

// ─────────────────────────────────────────────────────────────────────────────
// Ontology client  (4xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeInvalidCurie       ErrorCode = 40001
	CodeOntologyNotFound   ErrorCode = 40002
	CodeOntologyDeprecated ErrorCode = 40003
	CodeOntologyNetwork    ErrorCode = 40004
	CodeOntologyParse      ErrorCode = 40005
)

// ─────────────────────────────────────────────────────────────────────────────
// Mapping cascade / SSSOM  (5xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeSSSOMParseError ErrorCode = 50001
)

// ─────────────────────────────────────────────────────────────────────────────
// YAML auto-repair  (6xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeUnfixableYAML ErrorCode = 60001
	CodeSchemaDefault ErrorCode = 60002
)

// ─────────────────────────────────────────────────────────────────────────────
// Composition resolution / merge  (7xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeUnresolvedComposition ErrorCode = 70001

	// CodeFingerprintMismatch marks an internal invariant violation (a
	// recomputed fingerprint disagrees with the persisted one) — fatal,
	// exit 2.
	CodeFingerprintMismatch ErrorCode = 70002
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation driver  (8xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeLabelMismatch     ErrorCode = 80001
	CodeTermNotFound      ErrorCode = 80002
	CodeReferenceMismatch ErrorCode = 80003
	CodeStructuralInvalid ErrorCode = 80004
)

// ─────────────────────────────────────────────────────────────────────────────
// Optional infrastructure backends  (9xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	CodeCacheError        ErrorCode = 90001
	CodeDBQueryError      ErrorCode = 90002
	CodeSearchError       ErrorCode = 90003
	CodeStorageError      ErrorCode = 90004
	CodeMessageQueueError ErrorCode = 90005
	CodeGraphError        ErrorCode = 90006
)

// String returns the human-readable name associated with an ErrorCode.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "UNKNOWN"
	case CodeInvalidParam:
		return "INVALID_PARAM"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeConflict:
		return "CONFLICT"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeNotImplemented:
		return "NOT_IMPLEMENTED"
	case CodeImmutableLayer:
		return "IMMUTABLE_LAYER"
	case CodeLayerCollision:
		return "LAYER_COLLISION"
	case CodeQuarantined:
		return "QUARANTINED"
	case CodeNormalizationError:
		return "NORMALIZATION_ERROR"
	case CodeInvalidCurie:
		return "INVALID_CURIE"
	case CodeOntologyNotFound:
		return "ONTOLOGY_NOT_FOUND"
	case CodeOntologyDeprecated:
		return "ONTOLOGY_DEPRECATED"
	case CodeOntologyNetwork:
		return "ONTOLOGY_NETWORK_ERROR"
	case CodeOntologyParse:
		return "ONTOLOGY_PARSE_ERROR"
	case CodeSSSOMParseError:
		return "SSSOM_PARSE_ERROR"
	case CodeUnfixableYAML:
		return "UNFIXABLE_YAML"
	case CodeSchemaDefault:
		return "SCHEMA_DEFAULT_ERROR"
	case CodeUnresolvedComposition:
		return "UNRESOLVED_COMPOSITION"
	case CodeFingerprintMismatch:
		return "FINGERPRINT_MISMATCH"
	case CodeLabelMismatch:
		return "LABEL_MISMATCH"
	case CodeTermNotFound:
		return "TERM_NOT_FOUND"
	case CodeReferenceMismatch:
		return "REFERENCE_MISMATCH"
	case CodeStructuralInvalid:
		return "STRUCTURAL_INVALID"
	case CodeCacheError:
		return "CACHE_ERROR"
	case CodeDBQueryError:
		return "DB_QUERY_ERROR"
	case CodeSearchError:
		return "SEARCH_ERROR"
	case CodeStorageError:
		return "STORAGE_ERROR"
	case CodeMessageQueueError:
		return "MESSAGE_QUEUE_ERROR"
	case CodeGraphError:
		return "GRAPH_ERROR"
	default:
		return "UNKNOWN_CODE"
	}
}

// HTTPStatus returns the most appropriate HTTP status code for the given
// ErrorCode, used by cmd/apiserver's gin handlers.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidCurie:
		return http.StatusBadRequest
	case CodeNotFound, CodeOntologyNotFound, CodeTermNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeLayerCollision:
		return http.StatusConflict
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeCacheError, CodeSearchError, CodeStorageError, CodeMessageQueueError, CodeGraphError, CodeDBQueryError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error to the pipeline's CLI exit code: 0 success,
// 1 per-record validation failure, 2 internal invariant violation.
func (c ErrorCode) ExitCode() int {
	switch c {
	case CodeOK:
		return 0
	case CodeInternal, CodeFingerprintMismatch:
		return 2
	default:
		return 1
	}
}
