package relay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/relay"
	relaytesting "github.com/arloliu/relay/testing"
	"github.com/arloliu/relay/types"
)

func TestMonitor_PermanentFailureTerminatesStream(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0, 1, 2)
	_, listener := attach(t, broker, defaultConfig())
	cause := errors.New("unknown topic or partition")

	broker.PushStateChange(types.PartitionStateChange{
		Topic:     testTopic,
		Partition: 1,
		Class:     relay.ClassPermanent,
		Err:       cause,
	})

	require.Eventually(t, func() bool { return len(listener.Errors()) == 1 },
		time.Second, 5*time.Millisecond)

	var perr *relay.PartitionError
	require.ErrorAs(t, listener.Errors()[0], &perr)
	assert.Equal(t, testTopic, perr.Topic)
	assert.Equal(t, int32(1), perr.Partition)
	assert.Equal(t, relay.ClassPermanent, perr.Class)
	assert.ErrorIs(t, perr, cause)

	// Fail-fast terminates the relay only; the other partitions stay
	// subscribed until Close performs cleanup.
	assert.False(t, broker.Subscription(0).Canceled())
	assert.False(t, broker.Subscription(2).Canceled())
	assert.Equal(t, 0, listener.Completions())
}

func TestMonitor_TransientChangeIsIgnored(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	_, listener := attach(t, broker, defaultConfig())

	broker.PushStateChange(types.PartitionStateChange{
		Topic:     testTopic,
		Partition: 0,
		Class:     relay.ClassTransient,
		Err:       errors.New("leader election in progress"),
	})

	// Delivery keeps working and no terminal event fires.
	ctx := context.Background()
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 1)))
	require.NoError(t, broker.Barrier(ctx))
	assert.Empty(t, listener.Errors())
	assert.Len(t, listener.Messages(), 1)
}

func TestMonitor_OtherTopicChangeIsIgnored(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	_, listener := attach(t, broker, defaultConfig())

	broker.PushStateChange(types.PartitionStateChange{
		Topic:     "unrelated",
		Partition: 0,
		Class:     relay.ClassPermanent,
		Err:       errors.New("unrelated topic deleted"),
	})

	ctx := context.Background()
	require.NoError(t, broker.DeliverMessage(ctx, msg(0, 1)))
	require.NoError(t, broker.Barrier(ctx))
	assert.Empty(t, listener.Errors())
	assert.Len(t, listener.Messages(), 1)
}

func TestMonitor_TerminalEventIsExactlyOnce(t *testing.T) {
	broker := relaytesting.NewFakeBroker(0)
	_, listener := attach(t, broker, defaultConfig())

	broker.PushStateChange(types.PartitionStateChange{
		Topic: testTopic, Partition: 0, Class: relay.ClassPermanent,
		Err: errors.New("first"),
	})
	require.Eventually(t, func() bool { return len(listener.Errors()) == 1 },
		time.Second, 5*time.Millisecond)

	// A completion trigger after termination must not fire.
	require.NoError(t, broker.EndPartition(context.Background(), 0))
	require.NoError(t, broker.Barrier(context.Background()))
	assert.Equal(t, 0, listener.Completions())
	assert.Len(t, listener.Errors(), 1)
}
