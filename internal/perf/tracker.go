// Package perf tracks rolling latency and success statistics per
// enhancement backend for observability and SLA reporting.
package perf

import (
	"sort"
	"sync"
	"time"
)

// Stat holds the rolling statistics for one backend. AvgResponseTime is
// a count-weighted running average over every recorded call, not a
// fixed-window decay.
type Stat struct {
	Backend         string        `json:"backend"`
	TotalCalls      int64         `json:"total_calls"`
	SuccessCalls    int64         `json:"success_calls"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
}

// SuccessRate returns the fraction of recorded calls that succeeded.
func (s Stat) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCalls) / float64(s.TotalCalls)
}

// Tracker accumulates per-backend stats for the lifetime of the process.
// It is constructed explicitly and injected rather than held in a
// package global so tests get fresh instances. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	stats map[string]*Stat
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*Stat)}
}

// Record folds one observation into the backend's running average:
// new_avg = (old_avg*(n-1) + latency) / n.
func (t *Tracker) Record(backend string, latency time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[backend]
	if !ok {
		s = &Stat{Backend: backend}
		t.stats[backend] = s
	}

	s.TotalCalls++
	if success {
		s.SuccessCalls++
	}
	n := s.TotalCalls
	s.AvgResponseTime = time.Duration(
		(int64(s.AvgResponseTime)*(n-1) + int64(latency)) / n,
	)
}

// Snapshot returns a copy of the current per-backend stats.
func (t *Tracker) Snapshot() map[string]Stat {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Stat, len(t.stats))
	for backend, s := range t.stats {
		out[backend] = *s
	}
	return out
}

// SLABreach names one backend whose average latency exceeds its target.
type SLABreach struct {
	Backend string        `json:"backend"`
	Target  time.Duration `json:"target"`
	Actual  time.Duration `json:"actual"`
}

// SLAReport summarizes compliance against per-backend latency targets as
// a percentage rather than a hard per-call boolean.
type SLAReport struct {
	Checked       int         `json:"checked"`
	Compliant     int         `json:"compliant"`
	CompliancePct float64     `json:"compliance_pct"`
	Breaches      []SLABreach `json:"breaches,omitempty"`
}

// CheckSLA compares current averages against the given latency targets.
// Backends with a target but no recorded calls count as compliant; there
// is nothing to hold against them yet.
func (t *Tracker) CheckSLA(targets map[string]time.Duration) SLAReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := SLAReport{}
	for backend, target := range targets {
		report.Checked++
		s, ok := t.stats[backend]
		if !ok || s.TotalCalls == 0 || s.AvgResponseTime <= target {
			report.Compliant++
			continue
		}
		report.Breaches = append(report.Breaches, SLABreach{
			Backend: backend,
			Target:  target,
			Actual:  s.AvgResponseTime,
		})
	}

	sort.Slice(report.Breaches, func(i, j int) bool {
		return report.Breaches[i].Backend < report.Breaches[j].Backend
	})
	if report.Checked > 0 {
		report.CompliancePct = 100 * float64(report.Compliant) / float64(report.Checked)
	} else {
		report.CompliancePct = 100
	}
	return report
}
