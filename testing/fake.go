package testing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/relay/internal/driver"
	"github.com/arloliu/relay/types"
)

// FakeBroker is a deterministic in-memory implementation of both relay
// collaborator contracts (types.Cluster and types.PartitionSubscriber).
//
// Tests script the broker by configuring partitions, offsets, and failure
// injection before bootstrap, then drive it by pushing messages, partition
// ends, and state changes. All deliveries go through a real serialized
// driver, so tests observe the same ordering the production adapters
// guarantee.
type FakeBroker struct {
	driver *driver.Serial
	states chan types.PartitionStateChange

	mu           sync.Mutex
	partitions   []int32
	offsets      map[int32]int64
	connectErr   error
	resolveErr   error
	metadataErr  error
	subscribeErr map[int32]error
	subs         map[int32]*FakeSubscription

	connectCalls atomic.Int32
	resolveCalls atomic.Int32
	closed       atomic.Bool
}

// Compile-time assertions for the collaborator contracts.
var (
	_ types.Cluster             = (*FakeBroker)(nil)
	_ types.PartitionSubscriber = (*FakeBroker)(nil)
)

// NewFakeBroker creates a broker exposing the given partition ids. Start
// offsets default to zero for every partition.
func NewFakeBroker(partitions ...int32) *FakeBroker {
	offsets := make(map[int32]int64, len(partitions))
	for _, p := range partitions {
		offsets[p] = 0
	}

	return &FakeBroker{
		driver:       driver.New(),
		states:       make(chan types.PartitionStateChange, 16),
		partitions:   partitions,
		offsets:      offsets,
		subscribeErr: make(map[int32]error),
		subs:         make(map[int32]*FakeSubscription),
	}
}

// SetOffset sets the offset resolution result for one partition.
func (b *FakeBroker) SetOffset(partition int32, offset int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offsets[partition] = offset
}

// FailConnect makes Connect fail with err.
func (b *FakeBroker) FailConnect(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connectErr = err
}

// FailResolve makes ResolveOffsets fail with err.
func (b *FakeBroker) FailResolve(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolveErr = err
}

// FailMetadata makes PartitionMetadata fail with err.
func (b *FakeBroker) FailMetadata(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadataErr = err
}

// FailSubscribe makes Subscribe fail with err for one partition.
func (b *FakeBroker) FailSubscribe(partition int32, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribeErr[partition] = err
}

// Connect implements types.Cluster.
func (b *FakeBroker) Connect(_ context.Context) error {
	b.connectCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.connectErr
}

// ResolveOffsets implements types.Cluster.
func (b *FakeBroker) ResolveOffsets(_ context.Context, _ string, start types.StartPosition) (map[int32]int64, error) {
	b.resolveCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolveErr != nil {
		return nil, b.resolveErr
	}

	offsets := make(map[int32]int64)
	for _, p := range b.partitions {
		if start.ShouldConsume(p) {
			offsets[p] = b.offsets[p]
		}
	}

	return offsets, nil
}

// PartitionMetadata implements types.Cluster.
func (b *FakeBroker) PartitionMetadata(_ context.Context, _ string) ([]int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.metadataErr != nil {
		return nil, b.metadataErr
	}

	return append([]int32(nil), b.partitions...), nil
}

// PartitionStateChanges implements types.Cluster.
func (b *FakeBroker) PartitionStateChanges() <-chan types.PartitionStateChange {
	return b.states
}

// Driver implements types.Cluster.
func (b *FakeBroker) Driver() types.Driver {
	return b.driver
}

// Close implements types.Cluster. Idempotent.
func (b *FakeBroker) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.driver.Close()

	return ctx.Err()
}

// Subscribe implements types.PartitionSubscriber.
func (b *FakeBroker) Subscribe(_ context.Context, topic string, partition int32, startOffset int64, sink types.PartitionSink) (types.SubscriptionHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.subscribeErr[partition]; err != nil {
		return nil, err
	}

	sub := &FakeSubscription{
		topic:       topic,
		partition:   partition,
		startOffset: startOffset,
		sink:        sink,
	}
	b.subs[partition] = sub

	return sub, nil
}

// DeliverMessage injects one message through the driver, as the production
// adapters do, and waits for the relay path to finish. Fails if the
// partition has no live subscription.
func (b *FakeBroker) DeliverMessage(ctx context.Context, msg types.Message) error {
	sub := b.Subscription(msg.Partition)
	if sub == nil {
		return fmt.Errorf("no subscription for partition %d", msg.Partition)
	}
	if sub.Canceled() {
		return fmt.Errorf("subscription for partition %d is canceled", msg.Partition)
	}

	return b.driver.Run(ctx, func() { sub.sink.Deliver(msg) })
}

// EndPartition signals the natural end of one partition's stream through the
// driver and waits for the callback to finish.
func (b *FakeBroker) EndPartition(ctx context.Context, partition int32) error {
	sub := b.Subscription(partition)
	if sub == nil {
		return fmt.Errorf("no subscription for partition %d", partition)
	}

	return b.driver.Run(ctx, func() { sub.sink.PartitionEnded(partition) })
}

// PushStateChange emits one partition health notification.
func (b *FakeBroker) PushStateChange(change types.PartitionStateChange) {
	b.states <- change
}

// Barrier waits until everything currently queued on the driver, including
// actions scheduled by previously delivered events, has run.
func (b *FakeBroker) Barrier(ctx context.Context) error {
	return b.driver.Run(ctx, func() {})
}

// Subscription returns the subscription for a partition, nil if none was
// ever made.
func (b *FakeBroker) Subscription(partition int32) *FakeSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.subs[partition]
}

// ConnectCalls returns how many times Connect was invoked.
func (b *FakeBroker) ConnectCalls() int { return int(b.connectCalls.Load()) }

// ResolveCalls returns how many times ResolveOffsets was invoked.
func (b *FakeBroker) ResolveCalls() int { return int(b.resolveCalls.Load()) }

// FakeSubscription records one partition subscription made against the fake
// broker.
type FakeSubscription struct {
	topic       string
	partition   int32
	startOffset int64
	sink        types.PartitionSink

	cancels atomic.Int32
}

var _ types.SubscriptionHandle = (*FakeSubscription)(nil)

// Cancel implements types.SubscriptionHandle.
func (s *FakeSubscription) Cancel() error {
	s.cancels.Add(1)

	return nil
}

// Canceled reports whether Cancel was called at least once.
func (s *FakeSubscription) Canceled() bool { return s.cancels.Load() > 0 }

// CancelCount returns how many times Cancel was called.
func (s *FakeSubscription) CancelCount() int { return int(s.cancels.Load()) }

// Topic returns the subscribed topic.
func (s *FakeSubscription) Topic() string { return s.topic }

// Partition returns the subscribed partition.
func (s *FakeSubscription) Partition() int32 { return s.partition }

// StartOffset returns the offset the subscription started at.
func (s *FakeSubscription) StartOffset() int64 { return s.startOffset }
