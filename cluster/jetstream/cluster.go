// Package jetstream adapts a NATS JetStream stream to the relay collaborator
// contracts.
//
// One Cluster value implements both types.Cluster and
// types.PartitionSubscriber. Partitions map to per-partition subjects
// generated from a template, offsets map to stream sequences, and each
// partition subscription is an ordered consumer filtered to its subject.
package jetstream

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/relay/internal/driver"
	"github.com/arloliu/relay/internal/logging"
	"github.com/arloliu/relay/types"
)

// stateBuffer bounds the partition-state notification channel.
const stateBuffer = 16

// Cluster is a JetStream-backed implementation of the relay collaborators.
//
// The NATS connection is caller-owned and is not closed by Close, matching
// the usual embedding pattern where one connection serves many components.
type Cluster struct {
	conn   *nats.Conn
	cfg    Config
	logger types.Logger

	subjectTmpl *template.Template
	driver      *driver.Serial
	states      chan types.PartitionStateChange

	mu     sync.Mutex
	js     jetstream.JetStream
	stream jetstream.Stream
	closed bool
}

// Compile-time assertions for the collaborator contracts.
var (
	_ types.Cluster             = (*Cluster)(nil)
	_ types.PartitionSubscriber = (*Cluster)(nil)
)

// Option configures a Cluster.
type Option func(*Cluster)

// WithLogger sets a logger.
func WithLogger(logger types.Logger) Option {
	return func(c *Cluster) {
		c.logger = logger
	}
}

// New creates a JetStream cluster adapter over an existing NATS connection.
func New(conn *nats.Conn, cfg Config, opts ...Option) (*Cluster, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection is required")
	}

	tmpl, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		conn:        conn,
		cfg:         cfg,
		logger:      logging.NewNop(),
		subjectTmpl: tmpl,
		driver:      driver.New(),
		states:      make(chan types.PartitionStateChange, stateBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Connect creates the JetStream context and verifies the stream exists.
func (c *Cluster) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.js != nil {
		return nil
	}

	js, err := jetstream.New(c.conn)
	if err != nil {
		return fmt.Errorf("create jetstream context: %w", err)
	}

	stream, err := js.Stream(ctx, c.cfg.StreamName)
	if err != nil {
		return fmt.Errorf("lookup stream %q: %w", c.cfg.StreamName, err)
	}

	c.js = js
	c.stream = stream
	c.logger.Debug("jetstream connected", "stream", c.cfg.StreamName)

	return nil
}

// ResolveOffsets resolves earliest/latest start positions to stream
// sequences. JetStream sequences are stream-wide, so every partition subject
// shares the same resolved bound; the per-subject ordered consumers skip
// sequences belonging to other subjects on their own.
func (c *Cluster) ResolveOffsets(ctx context.Context, _ string, start types.StartPosition) (map[int32]int64, error) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil, fmt.Errorf("jetstream cluster not connected")
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}

	seq := int64(info.State.FirstSeq)
	if start.Location == types.StartLatest {
		seq = int64(info.State.LastSeq) + 1
	}

	offsets := make(map[int32]int64, c.cfg.Partitions)
	for partition := int32(0); partition < c.cfg.Partitions; partition++ {
		if start.ShouldConsume(partition) {
			offsets[partition] = seq
		}
	}

	return offsets, nil
}

// PartitionMetadata returns the configured partition ids 0..Partitions-1.
func (c *Cluster) PartitionMetadata(_ context.Context, _ string) ([]int32, error) {
	partitions := make([]int32, c.cfg.Partitions)
	for i := range partitions {
		partitions[i] = int32(i)
	}

	return partitions, nil
}

// PartitionStateChanges returns the partition health notification stream.
func (c *Cluster) PartitionStateChanges() <-chan types.PartitionStateChange {
	return c.states
}

// Driver returns the adapter's serialized execution context.
func (c *Cluster) Driver() types.Driver {
	return c.driver
}

// Close stops the driver. The caller-owned NATS connection is left open.
// Idempotent.
func (c *Cluster) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.driver.Close()

	return ctx.Err()
}

// subject expands the subject template for one partition.
func (c *Cluster) subject(partition int32) (string, error) {
	var buf bytes.Buffer
	if err := c.subjectTmpl.Execute(&buf, subjectContext{Partition: partition}); err != nil {
		return "", fmt.Errorf("expand subject template for partition %d: %w", partition, err)
	}

	return buf.String(), nil
}

// pushState forwards a partition health notification, dropping it if the
// channel is full.
func (c *Cluster) pushState(change types.PartitionStateChange) {
	select {
	case c.states <- change:
	default:
		c.logger.Warn("partition state notification dropped",
			"partition", change.Partition, "class", change.Class.String())
	}
}
