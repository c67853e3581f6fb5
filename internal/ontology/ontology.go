// Package ontology wraps the two term sources the mapping cascade consults:
// EBI's OLS (remote, HTTP) and a locally indexed OAK snapshot (OpenSearch).
// Both expose the same four operations — exact, synonym, fuzzy, verify — so
// the cascade can try one after the other without caring which backend
// answered.
package ontology

import "context"

// Term is a single ontology term as returned by either backend.
type Term struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Synonyms   []string `json:"synonyms"`
	Ontology   string   `json:"ontology"`
	Deprecated bool     `json:"deprecated"`
	Formula    string   `json:"formula,omitempty"`
}

// FuzzyCandidate pairs a Term with the backend's own relevance score, in
// [0, 100].
type FuzzyCandidate struct {
	Term  Term
	Score float64
}

// VerifyResult is the outcome of confirming a CURIE still resolves to a live
// term.
type VerifyResult struct {
	Valid      bool
	Label      string
	Synonyms   []string
	Formula    string
	Deprecated bool
}

// Failure is a reason a lookup produced no usable term. Failures are
// returned, never panicked or logged-and-swallowed, so every caller can
// count them into a MappingStats-shaped summary.
type Failure string

const (
	FailureNotFound     Failure = "not_found"
	FailureInvalidID    Failure = "invalid_id"
	FailureDeprecated   Failure = "deprecated"
	FailureNetworkError Failure = "network_error"
	FailureParseError   Failure = "parse_error"
)

// LookupError reports a Failure alongside the detail that produced it.
// Callers branch on Failure, not on string matching.
type LookupError struct {
	Failure Failure
	Detail  string
}

func (e *LookupError) Error() string {
	return string(e.Failure) + ": " + e.Detail
}

// NewLookupError constructs a LookupError.
func NewLookupError(failure Failure, detail string) *LookupError {
	return &LookupError{Failure: failure, Detail: detail}
}

// IsFailure reports whether err is a *LookupError carrying the given
// Failure.
func IsFailure(err error, failure Failure) bool {
	le, ok := err.(*LookupError)
	return ok && le.Failure == failure
}

// Service is the common shape of both the OLS remote client and the OAK
// local client. The cascade calls these directly; it never needs to know
// which concrete backend is behind the interface.
type Service interface {
	// Exact returns the term whose label matches name exactly, or a
	// *LookupError (FailureNotFound, FailureNetworkError, ...).
	Exact(ctx context.Context, name, ontology string) (*Term, error)

	// Synonym returns the term one of whose synonyms matches name exactly.
	Synonym(ctx context.Context, name, ontology string) (*Term, error)

	// Fuzzy returns up to limit candidates ranked by the backend's own
	// relevance score, highest first.
	Fuzzy(ctx context.Context, name, ontology string, limit int) ([]FuzzyCandidate, error)

	// Verify confirms curie still resolves, validating its syntax first —
	// a syntactically invalid CURIE never reaches the network.
	Verify(ctx context.Context, curie string) (*VerifyResult, error)
}
