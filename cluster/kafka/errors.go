package kafka

import (
	"errors"

	"github.com/Shopify/sarama"

	"github.com/arloliu/relay/types"
)

// Classify maps a broker error to the relay's error taxonomy.
//
// Permanent classifications abort the whole topic subscription through the
// fail-fast monitor, so only errors that cannot resolve by retrying belong
// there: the topic is gone, the client is not authorized, or the broker
// rejects the protocol outright. Leadership churn, timeouts, and
// connectivity loss are transient; sarama's own retry machinery handles
// them.
func Classify(err error) types.ErrorClass {
	if err == nil {
		return types.ClassNone
	}

	var kerr sarama.KError
	if !errors.As(err, &kerr) {
		return types.ClassTransient
	}

	switch kerr {
	case sarama.ErrUnknownTopicOrPartition,
		sarama.ErrInvalidTopic,
		sarama.ErrTopicAuthorizationFailed,
		sarama.ErrClusterAuthorizationFailed,
		sarama.ErrUnsupportedVersion,
		sarama.ErrOffsetOutOfRange:
		return types.ClassPermanent
	default:
		return types.ClassTransient
	}
}
