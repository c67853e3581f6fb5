// Package reports holds the in-process history cmd/apiserver's read-only
// surface serves: the RunReport each cmd/culturemech subcommand produces,
// and the MappingStats the mapping cascade produces, both keyed by the
// command/run that generated them. This is intentionally in-memory and
// per-process. The HTTP and gRPC read RPCs serve from it; no subcommand or
// RPC in this repository calls RecordRunReport or RecordMappingStats, so
// a Store is populated only by code that calls them directly. Nothing here
// persists across an apiserver restart.
package reports

import (
	"sync"

	"github.com/culturemech/culturemech/internal/domain/mapping"
	"github.com/culturemech/culturemech/internal/stats"
)

// Store accumulates RunReports and MappingStats as they are produced,
// keeping the most recent N per command and the single latest
// MappingStats snapshot. Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	maxPerCmd    int
	runReports   map[string][]stats.RunReport
	mappingStats *mapping.MappingStats
}

// New returns an empty Store retaining up to maxPerCmd reports per command
// (the most recent maxPerCmd are kept, oldest dropped first).
func New(maxPerCmd int) *Store {
	if maxPerCmd <= 0 {
		maxPerCmd = 20
	}
	return &Store{
		maxPerCmd:  maxPerCmd,
		runReports: make(map[string][]stats.RunReport),
	}
}

// RecordRunReport appends report to its command's history, trimming the
// oldest entry if the per-command cap is exceeded.
func (s *Store) RecordRunReport(report stats.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.runReports[report.Command], report)
	if len(list) > s.maxPerCmd {
		list = list[len(list)-s.maxPerCmd:]
	}
	s.runReports[report.Command] = list
}

// RecordMappingStats replaces the latest known mapping cascade snapshot.
func (s *Store) RecordMappingStats(ms *mapping.MappingStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappingStats = ms
}

// ListRunReports returns every retained report, across every command, in
// no particular cross-command order.
func (s *Store) ListRunReports() []stats.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []stats.RunReport
	for _, list := range s.runReports {
		out = append(out, list...)
	}
	return out
}

// LatestRunReport returns the most recent report for command, if any.
func (s *Store) LatestRunReport(command string) (stats.RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.runReports[command]
	if len(list) == 0 {
		return stats.RunReport{}, false
	}
	return list[len(list)-1], true
}

// LatestMappingStats returns the most recently recorded mapping cascade
// snapshot, if any has been recorded yet.
func (s *Store) LatestMappingStats() (*mapping.MappingStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappingStats, s.mappingStats != nil
}
