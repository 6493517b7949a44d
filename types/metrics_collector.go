package types

// MetricsCollector defines methods for recording consumer-side metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods are called from the driver context and from caller goroutines and
// must be thread-safe.
type MetricsCollector interface {
	// RecordMessageDelivered records one message handed to the listener.
	RecordMessageDelivered(topic string, partition int32)

	// RecordFlowControlTransition records an edge of the flow-control
	// signal: true when the gate opened, false when it closed.
	RecordFlowControlTransition(open bool)

	// RecordOutstandingWork sets the current unacknowledged message count
	// (gauge metric).
	RecordOutstandingWork(count int64)

	// RecordPartitionSubscribed records one partition entering the session.
	RecordPartitionSubscribed(topic string, partition int32)

	// RecordPartitionCompleted records one partition leaving the session
	// through normal completion or stop-position cancellation.
	RecordPartitionCompleted(topic string, partition int32)

	// RecordTerminal records the session's terminal event.
	//
	// Parameters:
	//   - reason: "completed" or "failed"
	RecordTerminal(reason string)
}
