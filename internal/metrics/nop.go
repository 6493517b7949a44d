// Package metrics provides a no-op types.MetricsCollector used when no
// collector is injected.
package metrics

import "github.com/arloliu/relay/types"

// NopMetrics implements a no-op metrics collector. All metrics are discarded.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordMessageDelivered discards the metric.
func (n *NopMetrics) RecordMessageDelivered(_ string, _ int32) {}

// RecordFlowControlTransition discards the metric.
func (n *NopMetrics) RecordFlowControlTransition(_ bool) {}

// RecordOutstandingWork discards the metric.
func (n *NopMetrics) RecordOutstandingWork(_ int64) {}

// RecordPartitionSubscribed discards the metric.
func (n *NopMetrics) RecordPartitionSubscribed(_ string, _ int32) {}

// RecordPartitionCompleted discards the metric.
func (n *NopMetrics) RecordPartitionCompleted(_ string, _ int32) {}

// RecordTerminal discards the metric.
func (n *NopMetrics) RecordTerminal(_ string) {}
