package metrics

import (
	"strings"
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailure  Outcome = "failure"
)

type OperationMetrics struct {
	HandledTotal       int64 `json:"handled_total"`
	SuccessTotal       int64 `json:"success_total"`
	NotFoundTotal      int64 `json:"not_found_total"`
	FailureTotal       int64 `json:"failure_total"`
	TotalLatencyMillis int64 `json:"total_latency_millis"`
}

type UpstreamMetrics struct {
	CallsTotal         int64     `json:"calls_total"`
	FailureTotal       int64     `json:"failure_total"`
	LastStatus         int       `json:"last_status"`
	LastCallAt         time.Time `json:"last_call_at"`
	TotalLatencyMillis int64     `json:"total_latency_millis"`
}

type Snapshot struct {
	Operations  map[string]OperationMetrics `json:"operations"`
	Upstreams   map[string]UpstreamMetrics  `json:"upstreams"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

type registry struct {
	mu         sync.RWMutex
	operations map[string]*OperationMetrics
	upstreams  map[string]*UpstreamMetrics
}

var (
	globalMu       sync.RWMutex
	globalRegistry = newRegistry()
)

func newRegistry() *registry {
	return &registry{
		operations: make(map[string]*OperationMetrics),
		upstreams:  make(map[string]*UpstreamMetrics),
	}
}

func current() *registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRegistry
}

func ResetForTests() {
	globalMu.Lock()
	globalRegistry = newRegistry()
	globalMu.Unlock()
}

// RecordQuery counts one handled chat query for the given operation.
func RecordQuery(operation string, outcome Outcome, latency time.Duration) {
	r := current()
	key := normalizeKey(operation)
	if key == "" {
		key = "unknown"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.operations[key]
	if !ok {
		metrics = &OperationMetrics{}
		r.operations[key] = metrics
	}
	metrics.HandledTotal++
	switch outcome {
	case OutcomeSuccess:
		metrics.SuccessTotal++
	case OutcomeNotFound:
		metrics.NotFoundTotal++
	default:
		metrics.FailureTotal++
	}
	if latency > 0 {
		metrics.TotalLatencyMillis += latency.Milliseconds()
	}
}

// RecordUpstreamCall counts one outbound call. Status 0 means no response was received.
func RecordUpstreamCall(upstream string, status int, failed bool, latency time.Duration) {
	r := current()
	key := normalizeKey(upstream)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.upstreams[key]
	if !ok {
		metrics = &UpstreamMetrics{}
		r.upstreams[key] = metrics
	}
	metrics.CallsTotal++
	if failed {
		metrics.FailureTotal++
	}
	metrics.LastStatus = status
	metrics.LastCallAt = time.Now().UTC()
	if latency > 0 {
		metrics.TotalLatencyMillis += latency.Milliseconds()
	}
}

func SnapshotNow() Snapshot {
	r := current()
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		Operations:  make(map[string]OperationMetrics, len(r.operations)),
		Upstreams:   make(map[string]UpstreamMetrics, len(r.upstreams)),
		GeneratedAt: time.Now().UTC(),
	}

	for key, metrics := range r.operations {
		snapshot.Operations[key] = *metrics
	}
	for key, metrics := range r.upstreams {
		snapshot.Upstreams[key] = *metrics
	}

	return snapshot
}

func normalizeKey(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}
