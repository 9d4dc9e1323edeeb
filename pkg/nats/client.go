// Package nats wraps the NATS JetStream client used for ledger events.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func NewClient(url string, timeout time.Duration) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

func NewJetStreamContext(nc *nats.Conn) (jetstream.JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return js, nil
}

// EnsureLedgerStream creates or updates the stream holding ledger events.
func EnsureLedgerStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     messaging.LedgerStream,
		Subjects: []string{messaging.SubjectWildcard},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure ledger stream: %w", err)
	}
	return nil
}
