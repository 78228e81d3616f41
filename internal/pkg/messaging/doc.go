// Package messaging publishes and consumes events over a broker.
//
// Producers and consumers depend on the Messaging interface; NATS, NSQ and an
// in-process bus are selected by driver name through NewFromDriver.
package messaging
