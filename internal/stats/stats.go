// Package stats aggregates per-record batch-command results into a
// RunReport, per spec.md's "represent as a result type carrying either
// success or a typed error variant; aggregate at the boundary into a
// RunReport" error-handling design note. A RunReport is the thing every
// cmd/culturemech subcommand prints at exit and every cmd/apiserver
// handler returns as JSON; the optional Prometheus registry mirrors the
// same counts for scraping.
package stats

import (
	"sort"
	"time"

	"github.com/culturemech/culturemech/internal/telemetry/metrics"
	"github.com/culturemech/culturemech/pkg/errors"
)

// RecordOutcome is the per-record result of one batch command pass: either
// success, or a typed error with the file path it concerns.
type RecordOutcome struct {
	Path string
	Err  error
}

// Succeeded reports whether this outcome carries no error.
func (o RecordOutcome) Succeeded() bool {
	return o.Err == nil
}

// RunReport aggregates every RecordOutcome from one batch command
// invocation: total/success/failure counts, a per-category breakdown, and
// the top-N most frequent errors, per spec.md §7's "structured summary
// with counts per error category, the top-N most frequent errors, and for
// each persisted defect the file path."
type RunReport struct {
	Command     string           `json:"command"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	DryRun      bool             `json:"dry_run"`
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	ByCategory  map[string]int   `json:"by_category"`
	FailedPaths []string         `json:"failed_paths,omitempty"`
	TopErrors   []ErrorFrequency `json:"top_errors,omitempty"`
	ExitCode    int              `json:"exit_code"`
}

// ErrorFrequency pairs an error message with the number of records it was
// raised for, used for RunReport.TopErrors.
type ErrorFrequency struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Builder accumulates RecordOutcomes for a single batch command run and
// produces a RunReport, optionally mirroring counts into a metrics
// Registry as they arrive.
type Builder struct {
	command  string
	dryRun   bool
	started  time.Time
	reg      *metrics.Registry
	outcomes []RecordOutcome
}

// NewBuilder starts a report for command, recording the start time as now.
// reg may be nil, in which case no Prometheus counters are updated.
func NewBuilder(command string, dryRun bool, reg *metrics.Registry) *Builder {
	return &Builder{command: command, dryRun: dryRun, started: time.Now().UTC(), reg: reg}
}

// Record adds one outcome to the report, updating the attached metrics
// registry (if any) immediately.
func (b *Builder) Record(path string, err error) {
	b.outcomes = append(b.outcomes, RecordOutcome{Path: path, Err: err})
	if b.reg == nil {
		return
	}
	if err == nil {
		b.reg.RecipesProcessed.WithLabelValues(b.command, "success").Inc()
		return
	}
	b.reg.RecipesProcessed.WithLabelValues(b.command, "failure").Inc()
	b.reg.ErrorsByCategory.WithLabelValues(errors.GetCode(err).String()).Inc()
}

// Build finalizes the report as of now.
func (b *Builder) Build() RunReport {
	report := RunReport{
		Command:    b.command,
		StartedAt:  b.started,
		FinishedAt: time.Now().UTC(),
		DryRun:     b.dryRun,
		Total:      len(b.outcomes),
		ByCategory: make(map[string]int),
	}

	freq := make(map[string]int)
	worst := errors.CodeOK
	for _, o := range b.outcomes {
		if o.Succeeded() {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.FailedPaths = append(report.FailedPaths, o.Path)
		code := errors.GetCode(o.Err)
		report.ByCategory[code.String()]++
		freq[o.Err.Error()]++
		if code.ExitCode() > worst.ExitCode() {
			worst = code
		}
	}

	report.TopErrors = topErrors(freq, 10)
	report.ExitCode = worst.ExitCode()
	return report
}

// topErrors returns the n most frequent messages in freq, ties broken by
// message for determinism.
func topErrors(freq map[string]int, n int) []ErrorFrequency {
	if len(freq) == 0 {
		return nil
	}
	out := make([]ErrorFrequency, 0, len(freq))
	for msg, count := range freq {
		out = append(out, ErrorFrequency{Message: msg, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
