package relay

import "github.com/arloliu/relay/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. Internal packages and broker adapters depend
// on the `types` subpackage directly, avoiding an import cycle with this
// root package, while users get the convenient relay.Message, relay.Listener,
// etc.
type (
	Message              = types.Message
	StartLocation        = types.StartLocation
	StartPosition        = types.StartPosition
	StopPolicy           = types.StopPolicy
	StopFunc             = types.StopFunc
	Listener             = types.Listener
	ListenerFuncs        = types.ListenerFuncs
	ErrorClass           = types.ErrorClass
	PartitionError       = types.PartitionError
	PartitionStateChange = types.PartitionStateChange
)

// Re-export collaborator contracts for adapter implementers.
type (
	Cluster             = types.Cluster
	Driver              = types.Driver
	PartitionSubscriber = types.PartitionSubscriber
	PartitionSink       = types.PartitionSink
	SubscriptionHandle  = types.SubscriptionHandle
	Logger              = types.Logger
	MetricsCollector    = types.MetricsCollector
)

// Re-export start-location constants.
const (
	StartEarliest = types.StartEarliest
	StartLatest   = types.StartLatest
	StartExplicit = types.StartExplicit
)

// Re-export error-classification constants.
const (
	ClassNone      = types.ClassNone
	ClassTransient = types.ClassTransient
	ClassPermanent = types.ClassPermanent
)

// StopNever returns a policy that never completes any partition.
func StopNever() StopPolicy { return types.StopNever() }

// StopAtOffset returns a policy completing each listed partition once a
// message at or past its bound offset is delivered.
func StopAtOffset(bounds map[int32]int64) StopPolicy { return types.StopAtOffset(bounds) }
