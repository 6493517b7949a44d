package relay

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/relay/internal/flow"
	"github.com/arloliu/relay/internal/future"
	"github.com/arloliu/relay/internal/logging"
	"github.com/arloliu/relay/internal/metrics"
	"github.com/arloliu/relay/internal/registry"
	"github.com/arloliu/relay/types"
)

// Consumer is a single-subscriber consumer session for one topic.
//
// It merges messages from all of the topic's partitions into one output
// stream delivered to a single Listener, applies flow-control accounting
// between deliveries and acknowledgements, detects per-partition stop
// positions and permanent broker failures, and completes the stream exactly
// once.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Message delivery and registry mutation run on the cluster's driver
//     context; Ack and Close may be called from any goroutine
//
// Lifecycle:
//   - Create with NewConsumer()
//   - Attach exactly one listener with Subscribe(); bootstrap runs detached
//   - Await connectivity with Ready()
//   - Call Close() for idempotent teardown
type Consumer struct {
	cfg     Config
	cluster types.Cluster
	parts   types.PartitionSubscriber

	registry *registry.Registry
	gate     *flow.Gate // nil when flow control is disabled
	ready    *future.Future
	logger   types.Logger
	metrics  types.MetricsCollector

	listener types.Listener

	subscribed atomic.Bool
	everOwned  atomic.Bool // at least one partition ever entered the registry
	terminated atomic.Bool // a terminal listener callback was emitted
	closed     atomic.Bool
	gateOpen   atomic.Bool // last observed gate state, for transition metrics

	mu            sync.Mutex
	sessionCancel context.CancelFunc
}

// Compile-time assertion that Consumer is a valid partition sink.
var _ types.PartitionSink = (*Consumer)(nil)

// NewConsumer creates a consumer session for cfg.Topic.
//
// The cluster and parts collaborators supply broker connectivity and
// per-partition streaming; the cluster/kafka and cluster/jetstream adapters
// implement both with a single value.
//
// Parameters:
//   - cfg: Consumer configuration; defaults are applied, then validated
//   - cluster: Broker connectivity collaborator
//   - parts: Per-partition streaming collaborator
//   - opts: Optional logger and metrics collector
//
// Returns:
//   - *Consumer: Initialized consumer; no network activity until Subscribe
//   - error: Validation error if the configuration or collaborators are invalid
func NewConsumer(cfg *Config, cluster types.Cluster, parts types.PartitionSubscriber, opts ...Option) (*Consumer, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cluster == nil {
		return nil, ErrClusterRequired
	}
	if parts == nil {
		return nil, ErrPartitionSubscriberRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &consumerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}

	c := &Consumer{
		cfg:      *cfg,
		cluster:  cluster,
		parts:    parts,
		registry: registry.New(),
		ready:    future.New(),
		logger:   options.logger,
		metrics:  options.metrics,
	}
	if cfg.FlowControl.Enabled {
		c.gate = flow.NewGate(cfg.FlowControl.LowWatermark, cfg.FlowControl.HighWatermark)
		c.gateOpen.Store(true)
	}

	return c, nil
}

// Subscribe attaches the session's single listener and returns immediately.
//
// The connect-and-bootstrap sequence runs as a detached task; its outcome is
// reported through Ready and, on failure, through the listener's OnError.
// The first Subscribe wins: any later attempt fails with ErrAlreadySubscribed
// and has no effect on the attached listener.
func (c *Consumer) Subscribe(listener types.Listener) error {
	if listener == nil {
		return ErrListenerRequired
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.subscribed.CompareAndSwap(false, true) {
		return ErrAlreadySubscribed
	}

	c.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.sessionCancel = cancel
	c.mu.Unlock()

	go c.monitorPartitionState(ctx)
	go c.bootstrap(ctx)

	return nil
}

// Ready blocks until the connect-and-bootstrap sequence finished, returning
// its error if it failed. Calling Ready before Subscribe is a usage error
// reported as ErrNotSubscribed; it never blocks waiting for a subscriber that
// may never come.
func (c *Consumer) Ready(ctx context.Context) error {
	if !c.subscribed.Load() {
		return ErrNotSubscribed
	}

	return c.ready.Wait(ctx)
}

// Connected reports whether bootstrap completed successfully. It returns
// false before Subscribe and while bootstrap is still in flight.
func (c *Consumer) Connected() bool {
	return c.subscribed.Load() && c.ready.Resolved() && c.ready.Err() == nil
}

// Ack acknowledges processing of n messages, decrementing the
// outstanding-work counter. Valid only when flow control is enabled. May be
// called from any goroutine.
func (c *Consumer) Ack(n int) error {
	if c.gate == nil {
		return ErrFlowControlDisabled
	}
	if n <= 0 {
		return ErrInvalidAckCount
	}

	open := c.gate.Add(int64(-n))
	c.noteGate(open)
	c.metrics.RecordOutstandingWork(c.gate.Outstanding())

	return nil
}

// FlowControlEnabled reports whether flow-control accounting is active.
func (c *Consumer) FlowControlEnabled() bool { return c.gate != nil }

// MayProduce reports the current flow-control signal. Always true when flow
// control is disabled.
func (c *Consumer) MayProduce() bool {
	if c.gate == nil {
		return true
	}

	return c.gate.Open()
}

// FlowUpdates returns the edge-triggered flow-control notification channel,
// or nil when flow control is disabled. Partition fetch loops can treat a
// received true as a wake-up event.
func (c *Consumer) FlowUpdates() <-chan bool {
	if c.gate == nil {
		return nil
	}

	return c.gate.Updates()
}

// Outstanding returns the current unacknowledged message count, zero when
// flow control is disabled.
func (c *Consumer) Outstanding() int64 {
	if c.gate == nil {
		return 0
	}

	return c.gate.Outstanding()
}

// Topic returns the configured topic.
func (c *Consumer) Topic() string { return c.cfg.Topic }

// Close tears the session down: every live partition subscription is
// canceled best-effort, then the cluster collaborator is closed with a
// bounded timeout. Teardown failures are logged, never returned, since Close
// runs in a non-recoverable finalization path. Idempotent.
func (c *Consumer) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	cancel := c.sessionCancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.registry.CancelAll(c.logger)

	closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CloseTimeout)
	defer closeCancel()
	if err := c.cluster.Close(closeCtx); err != nil {
		c.logger.Warn("cluster close failed", "topic", c.cfg.Topic, "error", err)
	}

	c.logger.Info("consumer closed", "topic", c.cfg.Topic)

	return ctx.Err()
}

// Deliver implements types.PartitionSink: the relay path for one incoming
// message. Runs on the driver context.
//
// Order of operations: flow-control accounting first, then delivery to the
// listener, then the stop-position check. The stop check is bookkeeping after
// the listener's perspective of delivery, so the message that satisfies the
// stop policy is still delivered.
func (c *Consumer) Deliver(msg types.Message) {
	if c.closed.Load() || c.terminated.Load() {
		return
	}

	if c.gate != nil {
		open := c.gate.Add(1)
		c.noteGate(open)
		c.metrics.RecordOutstandingWork(c.gate.Outstanding())
	}
	c.metrics.RecordMessageDelivered(msg.Topic, msg.Partition)

	c.listener.OnMessage(msg)

	if c.cfg.Stop.Done(msg) {
		c.finishPartition(msg.Partition)
	}
}

// PartitionEnded implements types.PartitionSink: the broker reported the
// natural end of one partition's stream. Runs on the driver context.
func (c *Consumer) PartitionEnded(partition int32) {
	if _, ok := c.registry.Remove(partition); !ok {
		return
	}

	c.metrics.RecordPartitionCompleted(c.cfg.Topic, partition)
	c.logger.Debug("partition stream ended", "topic", c.cfg.Topic, "partition", partition)
	c.afterRemoval()
}

// finishPartition retires one partition after its stop position was reached:
// exactly one cancellation of the handle and one registry removal, in the
// message-processing path. Runs on the driver context.
func (c *Consumer) finishPartition(partition int32) {
	entry, ok := c.registry.Remove(partition)
	if !ok {
		return
	}

	if err := entry.Handle.Cancel(); err != nil {
		c.logger.Warn("failed to cancel completed partition", "topic", c.cfg.Topic, "partition", partition, "error", err)
	}

	c.metrics.RecordPartitionCompleted(c.cfg.Topic, partition)
	c.logger.Debug("partition reached stop position", "topic", c.cfg.Topic, "partition", partition)
	c.afterRemoval()
}

// afterRemoval runs the "maybe the whole session is done" check. The registry
// reaching zero after a removal is its unique trigger. Completion is deferred
// by one driver step so any delivery already queued for this removal's batch
// finishes first.
func (c *Consumer) afterRemoval() {
	if c.registry.Size() != 0 {
		return
	}

	c.cluster.Driver().Schedule(func() {
		if c.registry.Size() == 0 {
			c.complete()
		}
	})
}

// complete emits the terminal completion callback exactly once.
func (c *Consumer) complete() {
	if c.closed.Load() {
		return
	}
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}

	c.metrics.RecordTerminal("completed")
	c.logger.Info("consumer completed", "topic", c.cfg.Topic)
	c.listener.OnCompleted()
}

// fail emits the terminal error callback exactly once.
func (c *Consumer) fail(err error) {
	if c.closed.Load() {
		return
	}
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}

	c.metrics.RecordTerminal("failed")
	c.logger.Error("consumer terminated", "topic", c.cfg.Topic, "error", err)
	c.listener.OnError(err)
}

// noteGate records flow-control transitions for metrics.
func (c *Consumer) noteGate(open bool) {
	if c.gateOpen.Swap(open) != open {
		c.metrics.RecordFlowControlTransition(open)
	}
}
