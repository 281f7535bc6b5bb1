// Package bus abstracts the broadcast medium shared by every participant of a
// session. Implementations are best effort: Publish never reports failures,
// ordering is only guaranteed per publisher and late subscribers miss
// everything published before they subscribed.
package bus

import (
	"errors"
	"log"
)

var ErrClosed = errors.New("transport closed")

// Handler is invoked once per frame delivered to a subscription
type Handler func(frame []byte)

type Subscription interface {
	Unsubscribe()
}

// Transport is a handle on a named bus
type Transport interface {
	// Publish hands a frame to every current subscriber of topic, including
	// the ones registered through this same handle. It never blocks on
	// delivery and never fails observably.
	Publish(topic string, frame []byte)
	Subscribe(topic string, handler Handler) (Subscription, error)
	// Close drops every subscription made through this handle
	Close() error
}

// deliver runs a handler, isolating the caller from its panics
func deliver(topic string, handler Handler, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BUS-ERROR] Subscriber on topic %s panicked: %v", topic, r)
		}
	}()
	handler(frame)
}
