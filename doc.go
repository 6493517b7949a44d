// Package relay provides a single-subscriber fan-in consumer for partitioned,
// broker-based message streams.
//
// A Consumer attaches exactly one listener to a named topic, merges messages
// arriving from the topic's independently-progressing partitions into one
// output stream, applies hysteretic flow control between the listener's
// acknowledgement rate and the ingestion rate, detects per-partition stop
// positions and permanent broker failures, and tears the subscription down
// cleanly and exactly once.
//
// # Quick Start
//
//	cfg := relay.Config{
//	    Topic: "orders",
//	    Start: relay.StartPosition{Location: relay.StartEarliest},
//	    FlowControl: relay.FlowControlConfig{
//	        Enabled:       true,
//	        LowWatermark:  100,
//	        HighWatermark: 1000,
//	    },
//	}
//
//	broker, _ := kafka.New(kafka.Config{Brokers: []string{"localhost:9092"}})
//	consumer, _ := relay.NewConsumer(&cfg, broker, broker)
//
//	err := consumer.Subscribe(relay.ListenerFuncs{
//	    Message: func(msg relay.Message) {
//	        process(msg)
//	        consumer.Ack(1)
//	    },
//	    Completed: func() { log.Println("topic drained") },
//	    Error:     func(err error) { log.Println("subscription failed:", err) },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := consumer.Ready(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer consumer.Close(context.Background())
//
// # Architecture
//
// The Consumer coordinates four internal concerns:
//
//   - a hysteretic flow-control gate converting outstanding unacknowledged
//     work into a binary "may produce" signal with low/high watermarks
//   - a partition registry mapping partition ids to cancelable subscription
//     handles, drained as partitions complete
//   - an asynchronous bootstrapper resolving start offsets, fetching
//     partition metadata, and wiring each eligible partition into the relay
//   - a fail-fast monitor that aborts the whole subscription on the first
//     permanent partition failure
//
// All registry mutation and message delivery runs on the cluster
// collaborator's serialized driver context; listeners must not block in
// OnMessage.
//
// Broker connectivity is pluggable through the Cluster and
// PartitionSubscriber contracts; see the cluster/kafka and cluster/jetstream
// adapters.
package relay
