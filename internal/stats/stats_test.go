package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/stats"
	"github.com/culturemech/culturemech/pkg/errors"
)

func TestBuilder_AllSuccess_ExitCodeZero(t *testing.T) {
	b := stats.NewBuilder("validate", false, nil)
	b.Record("a.yaml", nil)
	b.Record("b.yaml", nil)

	report := b.Build()
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.ExitCode)
	assert.Empty(t, report.FailedPaths)
}

func TestBuilder_PerRecordFailure_ExitCodeOne(t *testing.T) {
	b := stats.NewBuilder("validate", false, nil)
	b.Record("a.yaml", nil)
	b.Record("b.yaml", errors.New(errors.CodeStructuralInvalid, "missing medium_type"))

	report := b.Build()
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"b.yaml"}, report.FailedPaths)
	assert.Equal(t, 1, report.ByCategory["STRUCTURAL_INVALID"])
	assert.Equal(t, 1, report.ExitCode)
}

func TestBuilder_InternalInvariantFailure_ExitCodeTwo(t *testing.T) {
	b := stats.NewBuilder("merge", false, nil)
	b.Record("a.yaml", errors.New(errors.CodeStructuralInvalid, "bad shape"))
	b.Record("b.yaml", errors.New(errors.CodeFingerprintMismatch, "fingerprint disagreement"))

	report := b.Build()
	assert.Equal(t, 2, report.ExitCode)
}

func TestBuilder_TopErrors_SortedByFrequencyThenMessage(t *testing.T) {
	b := stats.NewBuilder("validate", false, nil)
	b.Record("a.yaml", errors.New(errors.CodeTermNotFound, "term x not found"))
	b.Record("b.yaml", errors.New(errors.CodeTermNotFound, "term x not found"))
	b.Record("c.yaml", errors.New(errors.CodeLabelMismatch, "label mismatch"))

	report := b.Build()
	require.Len(t, report.TopErrors, 2)
	assert.Equal(t, "[TERM_NOT_FOUND(80002)] term x not found", report.TopErrors[0].Message)
	assert.Equal(t, 2, report.TopErrors[0].Count)
}

func TestBuilder_DryRunFlagCarriedOnReport(t *testing.T) {
	b := stats.NewBuilder("merge", true, nil)
	report := b.Build()
	assert.True(t, report.DryRun)
	assert.Equal(t, "merge", report.Command)
}
