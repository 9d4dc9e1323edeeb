// Package messaging defines the event contracts the ledger publishes after
// successful mutations. Events are informational: consumers (the notifier)
// render them as user-facing messages, and a publish failure never fails the
// mutation that produced it.
package messaging

import (
	"context"
)

// Stream and subject layout for ledger events.
const (
	LedgerStream  = "LEDGER"
	SubjectPrefix = "ledger.events"

	// SubjectWildcard matches every ledger event; the notifier subscribes to it.
	SubjectWildcard = SubjectPrefix + ".>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops events; used when NATS is disabled in config.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error { return nil }
