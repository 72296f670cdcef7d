package services

import (
	"sync"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/consultation"
)

// Stats counts consultation outcomes.
type Stats struct {
	mu            sync.Mutex
	total         int64
	byVariant     map[string]int64
	byKind        map[string]int64
	rosterMissing int64
	totalDuration time.Duration
	maxDuration   time.Duration
	lastAt        time.Time
}

// StatsSnapshot is a copy of the counters.
type StatsSnapshot struct {
	Total           int64            `json:"total"`
	Success         int64            `json:"success"`
	Challenge       int64            `json:"challenge_required"`
	Failure         int64            `json:"failure"`
	RosterMissing   int64            `json:"roster_missing"`
	FailuresByKind  map[string]int64 `json:"failures_by_kind"`
	AvgDurationMs   int64            `json:"avg_duration_ms"`
	MaxDurationMs   int64            `json:"max_duration_ms"`
	SuccessRate     float64          `json:"success_rate"`
	LastConsultedAt *time.Time       `json:"last_consulted_at,omitempty"`
}

// NewStats creates empty counters.
func NewStats() *Stats {
	return &Stats{byVariant: map[string]int64{}, byKind: map[string]int64{}}
}

// Record adds one outcome.
func (s *Stats) Record(out consultation.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byVariant[out.Variant.String()]++
	if out.Variant == consultation.VariantFailure {
		s.byKind[out.Kind().String()]++
	}
	if out.Variant == consultation.VariantSuccess && !out.RosterAvailable() {
		s.rosterMissing++
	}
	s.totalDuration += out.Duration
	if out.Duration > s.maxDuration {
		s.maxDuration = out.Duration
	}
	s.lastAt = time.Now()
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Total:          s.total,
		Success:        s.byVariant[consultation.VariantSuccess.String()],
		Challenge:      s.byVariant[consultation.VariantChallenge.String()],
		Failure:        s.byVariant[consultation.VariantFailure.String()],
		RosterMissing:  s.rosterMissing,
		FailuresByKind: make(map[string]int64, len(s.byKind)),
		MaxDurationMs:  s.maxDuration.Milliseconds(),
	}
	for k, v := range s.byKind {
		snap.FailuresByKind[k] = v
	}
	if s.total > 0 {
		snap.AvgDurationMs = (s.totalDuration / time.Duration(s.total)).Milliseconds()
		snap.SuccessRate = float64(snap.Success) / float64(s.total) * 100
		last := s.lastAt
		snap.LastConsultedAt = &last
	}
	return snap
}
