// Package testing provides helpers for testing relay-based code: a
// deterministic in-memory broker implementing the collaborator contracts, a
// logger writing to testing.T, and an embedded NATS server for adapter
// integration tests.
package testing
