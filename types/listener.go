package types

// Listener is the single downstream subscriber of a consumer session.
//
// OnMessage is invoked on the driver context and must not block or perform
// long-running work inline: blocking here stalls all network event processing
// for the session's cluster. Hand work off to another goroutine and use the
// relay's acknowledgement API for backpressure instead.
//
// Exactly one terminal callback is ever invoked: OnCompleted when every
// subscribed partition finished normally (or the topic had no eligible
// partitions at all), or OnError when bootstrap failed or a permanent
// partition failure aborted the subscription. Closing the consumer emits no
// terminal callback.
type Listener interface {
	OnMessage(msg Message)
	OnCompleted()
	OnError(err error)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are no-ops.
type ListenerFuncs struct {
	Message   func(msg Message)
	Completed func()
	Error     func(err error)
}

// OnMessage implements Listener.
func (l ListenerFuncs) OnMessage(msg Message) {
	if l.Message != nil {
		l.Message(msg)
	}
}

// OnCompleted implements Listener.
func (l ListenerFuncs) OnCompleted() {
	if l.Completed != nil {
		l.Completed()
	}
}

// OnError implements Listener.
func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}
