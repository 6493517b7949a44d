package relay_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/relay"
	relaytesting "github.com/arloliu/relay/testing"
	"github.com/arloliu/relay/types"
)

const testTopic = "orders"

// recordingListener captures everything the relay emits, with a flat event
// log so ordering across message/terminal callbacks can be asserted.
type recordingListener struct {
	mu        sync.Mutex
	messages  []relay.Message
	errors    []error
	completed int
	events    []string
}

func (l *recordingListener) OnMessage(msg relay.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
	l.events = append(l.events, fmt.Sprintf("message:%d:%d", msg.Partition, msg.Offset))
}

func (l *recordingListener) OnCompleted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed++
	l.events = append(l.events, "completed")
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
	l.events = append(l.events, "error")
}

func (l *recordingListener) Messages() []relay.Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]relay.Message(nil), l.messages...)
}

func (l *recordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

func (l *recordingListener) Completions() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.completed
}

func (l *recordingListener) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]error(nil), l.errors...)
}

func defaultConfig() *relay.Config {
	return &relay.Config{Topic: testTopic}
}

// attach creates a consumer against the broker, subscribes the recording
// listener, and waits for bootstrap to finish.
func attach(t *testing.T, broker *relaytesting.FakeBroker, cfg *relay.Config) (*relay.Consumer, *recordingListener) {
	t.Helper()

	consumer, err := relay.NewConsumer(cfg, broker, broker, relay.WithLogger(relaytesting.NewTestLogger(t)))
	require.NoError(t, err)

	listener := &recordingListener{}
	require.NoError(t, consumer.Subscribe(listener))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, consumer.Ready(ctx))

	t.Cleanup(func() { _ = consumer.Close(context.Background()) })

	return consumer, listener
}

func msg(partition int32, offset int64) relay.Message {
	return relay.Message{Topic: testTopic, Partition: partition, Offset: offset, Value: []byte("payload")}
}

func TestNewConsumer_Validation(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)

	tests := []struct {
		name    string
		cfg     *relay.Config
		cluster relay.Cluster
		parts   relay.PartitionSubscriber
		wantErr error
	}{
		{"nil config", nil, broker, broker, relay.ErrInvalidConfig},
		{"nil cluster", defaultConfig(), nil, broker, relay.ErrClusterRequired},
		{"nil partition subscriber", defaultConfig(), broker, nil, relay.ErrPartitionSubscriberRequired},
		{"missing topic", &relay.Config{}, broker, broker, relay.ErrTopicRequired},
		{
			"inverted watermarks",
			&relay.Config{Topic: testTopic, FlowControl: relay.FlowControlConfig{Enabled: true, LowWatermark: 50, HighWatermark: 10}},
			broker, broker, relay.ErrInvalidWatermarks,
		},
		{
			"explicit start without offsets",
			&relay.Config{Topic: testTopic, Start: relay.StartPosition{Location: relay.StartExplicit}},
			broker, broker, relay.ErrExplicitOffsetsRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := relay.NewConsumer(tt.cfg, tt.cluster, tt.parts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConsumer_SecondSubscribeFails(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	consumer, listener := attach(t, broker, defaultConfig())

	err := consumer.Subscribe(&recordingListener{})
	require.ErrorIs(t, err, relay.ErrAlreadySubscribed)

	// The first subscriber keeps receiving.
	require.NoError(t, broker.DeliverMessage(context.Background(), msg(0, 1)))
	require.Len(t, listener.Messages(), 1)
}

func TestConsumer_SubscribeNilListener(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	consumer, err := relay.NewConsumer(defaultConfig(), broker, broker)
	require.NoError(t, err)

	require.ErrorIs(t, consumer.Subscribe(nil), relay.ErrListenerRequired)
}

func TestConsumer_ReadyBeforeSubscribeIsUsageError(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	consumer, err := relay.NewConsumer(defaultConfig(), broker, broker)
	require.NoError(t, err)

	require.ErrorIs(t, consumer.Ready(context.Background()), relay.ErrNotSubscribed)
	assert.False(t, consumer.Connected())
}

func TestConsumer_EmptyTopicCompletesImmediately(t *testing.T) {
	broker := relaytesting.NewFakeBroker() // zero partitions
	consumer, listener := attach(t, broker, defaultConfig())

	require.NoError(t, broker.Barrier(context.Background()))

	assert.Equal(t, 1, listener.Completions())
	assert.Empty(t, listener.Messages())
	assert.True(t, consumer.Connected())
}

func TestConsumer_RelaysMessagesFromMultiplePartitions(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	_, listener := attach(t, broker, defaultConfig())

	ctx := context.Background()
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 10)))
	require.NoError(t, broker.DeliverMessage(ctx, msg(1, 20)))
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 11)))

	messages := listener.Messages()
	require.Len(t, messages, 3)

	// Per-partition order is preserved.
	var p0 []int64
	for _, m := range messages {
		if m.Partition == 0 {
			p0 = append(p0, m.Offset)
		}
	}
	assert.Equal(t, []int64{10, 11}, p0)
}

func TestConsumer_ResolvedStartOffsets(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	broker.SetOffset(0, 42)
	broker.SetOffset(1, 7)

	attach(t, broker, defaultConfig())

	assert.Equal(t, 1, broker.ResolveCalls())
	assert.Equal(t, int64(42), broker.Subscription(0).StartOffset())
	assert.Equal(t, int64(7), broker.Subscription(1).StartOffset())
}

func TestConsumer_ExplicitStartSkipsResolution(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	cfg := defaultConfig()
	cfg.Start = relay.StartPosition{
		Location: relay.StartExplicit,
		Offsets:  map[int32]int64{0: 5, 1: 9},
	}

	attach(t, broker, cfg)

	assert.Equal(t, 0, broker.ResolveCalls())
	assert.Equal(t, int64(5), broker.Subscription(0).StartOffset())
	assert.Equal(t, int64(9), broker.Subscription(1).StartOffset())
}

func TestConsumer_PartitionFilter(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1, 2)
	cfg := defaultConfig()
	cfg.Start = relay.StartPosition{Partitions: []int32{1}}

	attach(t, broker, cfg)

	assert.Nil(t, broker.Subscription(0))
	assert.NotNil(t, broker.Subscription(1))
	assert.Nil(t, broker.Subscription(2))
}

func TestConsumer_StopPositionRetiresPartition(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	cfg := defaultConfig()
	cfg.Stop = relay.StopAtOffset(map[int32]int64{0: 100})

	_, listener := attach(t, broker, cfg)
	ctx := context.Background()

	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 99)))
	assert.False(t, broker.Subscription(0).Canceled())

	// The message at the bound is still delivered, then the partition is
	// canceled exactly once and removed.
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 100)))
	assert.Equal(t, 1, broker.Subscription(0).CancelCount())
	require.Len(t, listener.Messages(), 2)

	// Delivering to the retired partition no longer reaches the relay.
	require.Error(t, broker.DeliverMessage(ctx, msg(0, 101)))

	// The other partition is unaffected, and the stream is not complete.
	require.NoError(t, broker.DeliverMessage(ctx, msg(1, 1)))
	require.NoError(t, broker.Barrier(ctx))
	assert.Equal(t, 0, listener.Completions())
}

func TestConsumer_LastPartitionCompletesStreamOnce(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	_, listener := attach(t, broker, defaultConfig())
	ctx := context.Background()

	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 1)))
	require.NoError(t, broker.EndPartition(ctx, 0))
	require.NoError(t, broker.Barrier(ctx))

	assert.Equal(t, 1, listener.Completions())

	// A duplicate end signal must not complete the stream again.
	require.NoError(t, broker.EndPartition(ctx, 0))
	require.NoError(t, broker.Barrier(ctx))
	assert.Equal(t, 1, listener.Completions())
}

func TestConsumer_CompletionDeferredBehindQueuedWork(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	cfg := defaultConfig()
	cfg.Stop = relay.StopAtOffset(map[int32]int64{0: 1})

	consumer, err := relay.NewConsumer(cfg, broker, broker, relay.WithLogger(relaytesting.NewTestLogger(t)))
	require.NoError(t, err)

	var mu sync.Mutex
	var events []string
	record := func(ev string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	// From inside the final delivery, queue a probe on the driver. The
	// probe lands in the queue before the completion that the same
	// delivery triggers, so completion must run after it.
	listener := relay.ListenerFuncs{
		Message: func(m relay.Message) {
			record(fmt.Sprintf("message:%d", m.Offset))
			broker.Driver().Schedule(func() { record("probe") })
		},
		Completed: func() { record("completed") },
	}
	require.NoError(t, consumer.Subscribe(listener))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, consumer.Ready(ctx))
	defer consumer.Close(context.Background())

	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 1)))
	require.NoError(t, broker.Barrier(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"message:1", "probe", "completed"}, events)
}

func TestConsumer_CloseCancelsAllSubscriptions(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	consumer, listener := attach(t, broker, defaultConfig())

	require.NoError(t, consumer.Close(context.Background()))

	assert.True(t, broker.Subscription(0).Canceled())
	assert.True(t, broker.Subscription(1).Canceled())

	// Dispose emits no terminal event and is idempotent.
	assert.Equal(t, 0, listener.Completions())
	assert.Empty(t, listener.Errors())
	require.NoError(t, consumer.Close(context.Background()))
}

func TestConsumer_SubscribeAfterCloseFails(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	consumer, err := relay.NewConsumer(defaultConfig(), broker, broker)
	require.NoError(t, err)
	require.NoError(t, consumer.Close(context.Background()))

	require.ErrorIs(t, consumer.Subscribe(&recordingListener{}), relay.ErrClosed)
}

func TestConsumer_ConnectedLifecycle(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	consumer, err := relay.NewConsumer(defaultConfig(), broker, broker)
	require.NoError(t, err)

	assert.False(t, consumer.Connected())

	require.NoError(t, consumer.Subscribe(&recordingListener{}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, consumer.Ready(ctx))
	defer consumer.Close(context.Background())

	assert.True(t, consumer.Connected())
	assert.Equal(t, testTopic, consumer.Topic())
}

func TestConsumer_DeliveryStopsAfterTermination(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1)
	_, listener := attach(t, broker, defaultConfig())
	ctx := context.Background()

	broker.PushStateChange(types.PartitionStateChange{
		Topic:     testTopic,
		Partition: 1,
		Class:     relay.ClassPermanent,
		Err:       fmt.Errorf("topic deleted"),
	})
	require.Eventually(t, func() bool { return len(listener.Errors()) == 1 },
		time.Second, 5*time.Millisecond)

	// The fake still has a live subscription, but the relay drops the
	// message after the terminal event.
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 1)))
	assert.Empty(t, listener.Messages())
}
