// Package messaging moves welcome notifications through a Redis list so
// SMTP latency never sits on the webhook path. Each queued welcome is popped
// by exactly one consumer, however many server replicas are running.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/notification"
	"github.com/jetdesk/billing/internal/infrastructure/metrics"
	pkgmessaging "github.com/jetdesk/billing/pkg/messaging"
)

const DefaultWelcomeQueue = "billing:welcome"

const (
	defaultPollTimeout = time.Second
	errorBackoff       = 2 * time.Second
)

// WelcomePublisher is a notification.WelcomeNotifier that enqueues instead of sending.
type WelcomePublisher struct {
	client pkgmessaging.RedisClient
	queue  string
}

func NewWelcomePublisher(client pkgmessaging.RedisClient, queue string) *WelcomePublisher {
	if queue == "" {
		queue = DefaultWelcomeQueue
	}
	return &WelcomePublisher{client: client, queue: queue}
}

func (p *WelcomePublisher) NotifyWelcome(ctx context.Context, msg notification.WelcomeMessage) error {
	if err := p.client.Enqueue(ctx, p.queue, msg); err != nil {
		return fmt.Errorf("enqueue welcome for company %s: %w", msg.CompanyID, err)
	}
	return nil
}

// WelcomeConsumer delivers queued welcome messages through a sending notifier.
type WelcomeConsumer struct {
	client      pkgmessaging.RedisClient
	queue       string
	notifier    notification.WelcomeNotifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	pollTimeout time.Duration
}

func NewWelcomeConsumer(
	client pkgmessaging.RedisClient,
	queue string,
	notifier notification.WelcomeNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WelcomeConsumer {
	if queue == "" {
		queue = DefaultWelcomeQueue
	}
	return &WelcomeConsumer{
		client:      client,
		queue:       queue,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		pollTimeout: defaultPollTimeout,
	}
}

// Run blocks until ctx is done. It returns at most one poll timeout after
// cancellation. Delivery failures are logged and dropped.
func (c *WelcomeConsumer) Run(ctx context.Context) error {
	c.logger.Info("Welcome consumer started", zap.String("queue", c.queue))
	defer c.logger.Info("Welcome consumer stopped", zap.String("queue", c.queue))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := c.client.Dequeue(ctx, c.queue, c.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Welcome queue read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		if msg == nil {
			continue
		}

		// the message is already off the queue; finish it even if ctx ends now
		c.handle(context.WithoutCancel(ctx), msg.Payload)
	}
}

func (c *WelcomeConsumer) handle(ctx context.Context, payload []byte) {
	var msg notification.WelcomeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("Dropping malformed welcome message", zap.Error(err))
		c.metrics.WelcomeEmail("malformed")
		return
	}

	if err := c.notifier.NotifyWelcome(ctx, msg); err != nil {
		c.logger.Warn("Welcome email failed",
			zap.String("company_id", msg.CompanyID),
			zap.Error(err),
		)
		c.metrics.WelcomeEmail("failed")
		return
	}
	c.metrics.WelcomeEmail("sent")
}
