// Package messaging publishes and consumes events over a broker chosen at
// startup (NATS, NSQ, Kafka, Google Pub/Sub, or an in-process bus).
//
// Handlers return nil to acknowledge a message. A non-nil error is retried a
// few times in process and then handed back to the broker, which redelivers
// when it knows how to.
package messaging
