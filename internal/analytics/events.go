// Package analytics defines the query and rebuild events published to Kafka
// and an aggregator that turns them into latency and usage statistics.
package analytics

import "time"

type EventType string

const (
	EventQuery   EventType = "query"
	EventRebuild EventType = "rebuild"
)

// QueryEvent describes one query served by the query service.
type QueryEvent struct {
	Type        EventType `json:"type"`
	Operation   string    `json:"operation"`
	Category    string    `json:"category,omitempty"`
	Key         string    `json:"key,omitempty"`
	ResultCount int       `json:"result_count"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// RebuildEvent describes one completed index rebuild.
type RebuildEvent struct {
	Type      EventType      `json:"type"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Writes    map[string]int `json:"writes,omitempty"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Timestamp time.Time      `json:"timestamp"`
}
