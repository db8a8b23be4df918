package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
func (n *NoopMetricsCollector) RecordTransferVolume(decimal.Decimal)          {}

// OperationStats aggregates one operation's calls.
type OperationStats struct {
	Calls         int64            `json:"calls"`
	TotalDuration time.Duration    `json:"totalDurationNs"`
	Results       map[string]int64 `json:"results"`
	Errors        map[string]int64 `json:"errors,omitempty"`
}

// Stats is a point-in-time copy of a StatsCollector.
type Stats struct {
	Operations     map[string]OperationStats `json:"operations"`
	Transfers      int64                     `json:"transfers"`
	TransferVolume decimal.Decimal           `json:"transferVolume"`
}

// StatsCollector keeps in-process counters for every ledger operation.
type StatsCollector struct {
	mu        sync.Mutex
	ops       map[string]*OperationStats
	transfers int64
	volume    decimal.Decimal
}

// NewStatsCollector creates an empty StatsCollector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{ops: make(map[string]*OperationStats)}
}

func (s *StatsCollector) op(name string) *OperationStats {
	st, ok := s.ops[name]
	if !ok {
		st = &OperationStats{Results: make(map[string]int64), Errors: make(map[string]int64)}
		s.ops[name] = st
	}
	return st
}

func (s *StatsCollector) RecordOperationDuration(operation string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.op(operation)
	st.Calls++
	st.TotalDuration += duration
}

func (s *StatsCollector) RecordOperationResult(operation string, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op(operation).Results[result]++
}

func (s *StatsCollector) RecordError(operation string, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op(operation).Errors[kind]++
}

func (s *StatsCollector) RecordTransferVolume(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers++
	s.volume = s.volume.Add(amount)
}

// Snapshot copies the current counters.
func (s *StatsCollector) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		Operations:     make(map[string]OperationStats, len(s.ops)),
		Transfers:      s.transfers,
		TransferVolume: s.volume,
	}
	for name, st := range s.ops {
		cp := OperationStats{
			Calls:         st.Calls,
			TotalDuration: st.TotalDuration,
			Results:       make(map[string]int64, len(st.Results)),
			Errors:        make(map[string]int64, len(st.Errors)),
		}
		for k, v := range st.Results {
			cp.Results[k] = v
		}
		for k, v := range st.Errors {
			cp.Errors[k] = v
		}
		out.Operations[name] = cp
	}
	return out
}
