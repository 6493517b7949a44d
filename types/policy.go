package types

// StartLocation selects where consumption of a partition begins.
type StartLocation int32

const (
	// StartEarliest begins at the oldest message retained by the broker.
	StartEarliest StartLocation = iota

	// StartLatest begins at the next message produced after subscription.
	StartLatest

	// StartExplicit begins at caller-supplied per-partition offsets.
	StartExplicit
)

// String returns a human-readable location name.
func (l StartLocation) String() string {
	switch l {
	case StartEarliest:
		return "earliest"
	case StartLatest:
		return "latest"
	case StartExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// StartPosition describes where a consumer begins reading a topic.
//
// When Location is StartEarliest or StartLatest, the consumer resolves
// concrete offsets against the cluster during bootstrap and replaces the
// policy with an explicit one. When Location is StartExplicit, Offsets must
// carry an entry for every partition the policy consumes.
//
// Partitions optionally restricts consumption to a subset of the topic's
// partitions; nil or empty means all partitions.
type StartPosition struct {
	Location   StartLocation
	Offsets    map[int32]int64
	Partitions []int32
}

// IsExplicit reports whether the policy already carries concrete offsets and
// needs no resolution round-trip.
func (s StartPosition) IsExplicit() bool {
	return s.Location == StartExplicit
}

// ShouldConsume reports whether the policy includes the given partition.
func (s StartPosition) ShouldConsume(partition int32) bool {
	if len(s.Partitions) == 0 {
		return true
	}
	for _, p := range s.Partitions {
		if p == partition {
			return true
		}
	}

	return false
}

// Offset returns the starting offset for a partition, if known.
func (s StartPosition) Offset(partition int32) (int64, bool) {
	off, ok := s.Offsets[partition]

	return off, ok
}

// WithResolvedOffsets returns an explicit copy of the policy carrying the
// resolved per-partition offsets. The partition filter is preserved.
func (s StartPosition) WithResolvedOffsets(offsets map[int32]int64) StartPosition {
	return StartPosition{
		Location:   StartExplicit,
		Offsets:    offsets,
		Partitions: s.Partitions,
	}
}

// StopPolicy decides, per delivered message, whether the owning partition's
// consumption is complete.
//
// Done is evaluated after the message has been handed to the listener; the
// message that satisfies the policy is therefore still delivered.
type StopPolicy interface {
	Done(msg Message) bool
}

// StopFunc adapts a plain function to a StopPolicy.
type StopFunc func(msg Message) bool

// Done implements StopPolicy.
func (f StopFunc) Done(msg Message) bool { return f(msg) }

// StopNever returns a policy that never completes any partition; consumption
// runs until the broker ends the stream or the consumer is closed.
func StopNever() StopPolicy {
	return StopFunc(func(Message) bool { return false })
}

// StopAtOffset returns a policy that completes a partition once a message at
// or past the bound offset for that partition is delivered. Partitions absent
// from bounds are never completed by this policy.
func StopAtOffset(bounds map[int32]int64) StopPolicy {
	return StopFunc(func(msg Message) bool {
		bound, ok := bounds[msg.Partition]

		return ok && msg.Offset >= bound
	})
}
