package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/MilaVelkova/NoSQLRiak/pkg/kafka"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// AggregatedStats is a point-in-time summary of the consumed event stream.
type AggregatedStats struct {
	TotalQueries    int64           `json:"total_queries"`
	ZeroResultCount int64           `json:"zero_result_count"`
	Rebuilds        int64           `json:"rebuilds"`
	RecordsIndexed  int64           `json:"records_indexed"`
	AvgLatencyMs    float64         `json:"avg_latency_ms"`
	P50LatencyMs    int64           `json:"p50_latency_ms"`
	P95LatencyMs    int64           `json:"p95_latency_ms"`
	P99LatencyMs    int64           `json:"p99_latency_ms"`
	TopOperations   []OperationCount `json:"top_operations"`
	TopDimensions   []OperationCount `json:"top_dimensions"`
}

// OperationCount pairs an operation or dimension label with its frequency.
type OperationCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Aggregator consumes query and rebuild events and maintains running usage
// statistics.
type Aggregator struct {
	mu             sync.RWMutex
	totalQueries   int64
	zeroResults    int64
	rebuilds       int64
	recordsIndexed int64
	latencies      []int64
	operations     map[string]int64
	dimensions     map[string]int64

	logger *slog.Logger
}

// NewAggregator creates an empty Aggregator. Feed it by registering
// HandleEvent as the consumer handler for the event topics.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:  make([]int64, 0, 10000),
		operations: make(map[string]int64),
		dimensions: make(map[string]int64),
		logger:     logger.WithComponent("analytics-aggregator"),
	}
}

// HandleEvent returns the kafka MessageHandler that feeds the aggregator.
// Undecodable events are logged and dropped, never retried.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[QueryEvent](value)
		if err == nil && event.Type == EventQuery {
			agg.recordQueryEvent(event)
			return nil
		}
		rebuild, rbErr := kafka.DecodeJSON[RebuildEvent](value)
		if rbErr == nil && rebuild.Type == EventRebuild {
			agg.recordRebuildEvent(rebuild)
			return nil
		}
		agg.logger.Error("failed to decode analytics event", "error", err)
		return nil
	}
}

func (a *Aggregator) recordQueryEvent(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQueries++
	if event.ResultCount == 0 {
		a.zeroResults++
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	a.operations[event.Operation]++
	if event.Category != "" {
		a.dimensions[event.Category]++
	}
}

func (a *Aggregator) recordRebuildEvent(event RebuildEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rebuilds++
	a.recordsIndexed += int64(event.Processed)
}

// Stats snapshots the aggregated statistics.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:    a.totalQueries,
		ZeroResultCount: a.zeroResults,
		Rebuilds:        a.rebuilds,
		RecordsIndexed:  a.recordsIndexed,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopOperations = topN(a.operations, 10)
	stats.TopDimensions = topN(a.dimensions, 10)
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []OperationCount {
	result := make([]OperationCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, OperationCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
