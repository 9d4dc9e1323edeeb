// Package subscriber consumes ledger events from JetStream and turns them
// into operator notifications.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/abgdnv/stockledger/pkg/config"
	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/abgdnv/stockledger/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// message is the slice of jetstream.Msg the handler needs.
type message interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
}

// Start initializes the NATS JetStream consumer and starts multiple worker goroutines to process messages.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg.Timeout, subscriberCfg.Interval, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the NATS JetStream consumer and processes them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout time.Duration, interval time.Duration, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			// ctx was cancelled or timed out (e.g., application shutdown)
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				// if the error is a timeout, we can just continue to the next iteration
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				// for other errors, we can log and retry
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(msg, logger)
			}
		}
	}
}

// handleMessage dispatches a single ledger event by its subject. Low stock
// warnings are logged at Warn so they stand out in the operator feed.
func handleMessage(msg message, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	subject := msg.Subject()
	entity := strings.TrimPrefix(subject, messaging.SubjectPrefix+".")

	var err error
	switch {
	case strings.HasPrefix(entity, "product."):
		err = notifyProduct(msg.Data(), subject, logger)
	case strings.HasPrefix(entity, "purchase."):
		err = notifyPurchase(msg.Data(), subject, logger)
	case strings.HasPrefix(entity, "sale."):
		err = notifySale(msg.Data(), subject, logger)
	case entity == "stock.low":
		err = notifyLowStock(msg.Data(), subject, logger)
	default:
		logger.Warn("unknown event subject", "subject", subject)
	}
	if err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", subject)
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

func notifyProduct(data []byte, subject string, logger *slog.Logger) error {
	var event events.ProductEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	logger.Info("product "+event.Action,
		slog.String("subject", subject),
		slog.String("product_id", event.ProductID),
		slog.String("name", event.Name),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))
	return nil
}

func notifyPurchase(data []byte, subject string, logger *slog.Logger) error {
	var event events.PurchaseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	logger.Info("purchase "+event.Action,
		slog.String("subject", subject),
		slog.String("purchase_id", event.PurchaseID),
		slog.String("product_id", event.ProductID),
		slog.String("vendor", event.VendorName),
		slog.Int("quantity", event.Quantity),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))
	return nil
}

func notifySale(data []byte, subject string, logger *slog.Logger) error {
	var event events.SaleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	logger.Info("sale "+event.Action,
		slog.String("subject", subject),
		slog.String("sale_id", event.SaleID),
		slog.String("product_id", event.ProductID),
		slog.String("customer", event.CustomerName),
		slog.Int("quantity", event.Quantity),
		slog.Int("remaining", event.Remaining),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))
	return nil
}

func notifyLowStock(data []byte, subject string, logger *slog.Logger) error {
	var event events.LowStockEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	logger.Warn("product stock below threshold",
		slog.String("subject", subject),
		slog.String("product_id", event.ProductID),
		slog.String("name", event.Name),
		slog.Int("quantity", event.Quantity),
		slog.Int("threshold", event.Threshold))
	return nil
}
