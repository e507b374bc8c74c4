// Package telemetry consumes per-video counter snapshots from RabbitMQ and
// feeds them to the metrics aggregator.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Delivery outcomes
const (
	OutcomeIngested  = "ingested"
	OutcomeStale     = "stale"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeRetry     = "retry"
)

const (
	dialAttempts = 5
	dialBackoff  = 5 * time.Second
	prefetch     = 16
)

// Ingester accepts telemetry snapshots
type Ingester interface {
	Ingest(ctx context.Context, snapshot model.TelemetrySnapshot) (*model.PerformanceMetrics, error)
}

// Consumer reads snapshots from one durable queue
type Consumer struct {
	url      string
	queue    string
	ingester Ingester
	logger   zerolog.Logger
	handled  *prometheus.CounterVec
}

// NewConsumer creates a Consumer. Its delivery counter is registered with reg when reg is not nil.
func NewConsumer(url, queue string, ingester Ingester, reg prometheus.Registerer, logger zerolog.Logger) *Consumer {
	return &Consumer{
		url:      url,
		queue:    queue,
		ingester: ingester,
		logger:   logger.With().Str("component", "telemetry").Str("queue", queue).Logger(),
		handled: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytshorts",
			Subsystem: "telemetry",
			Name:      "deliveries_total",
			Help:      "Telemetry deliveries by outcome.",
		}, []string{"outcome"}),
	}
}

// Run consumes until ctx is cancelled or the broker closes the channel
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to open channel")
	}
	defer ch.Close()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to set prefetch")
	}
	q, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to declare queue")
	}

	deliveries, err := ch.Consume(q.Name, "ytshorts-telemetry", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to start consuming")
	}
	c.logger.Info().Msg("consuming telemetry")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New(errors.CodeExternal, "telemetry delivery channel closed")
			}
			c.HandleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) dial(ctx context.Context) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp.Dial(c.url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("broker unreachable, retrying")

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "telemetry consumer stopped")
		case <-time.After(dialBackoff):
		}
	}
	return nil, errors.Wrap(lastErr, errors.CodeExternal, "failed to connect to broker")
}

// HandleDelivery ingests one message and settles it. Malformed and invalid
// snapshots are rejected without requeue, stale ones are acknowledged and
// anything else is requeued once.
func (c *Consumer) HandleDelivery(ctx context.Context, d amqp.Delivery) string {
	outcome := c.handle(ctx, d)
	c.handled.WithLabelValues(outcome).Inc()
	return outcome
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) string {
	var snapshot model.TelemetrySnapshot
	if err := json.Unmarshal(d.Body, &snapshot); err != nil {
		c.logger.Warn().Err(err).Uint64("tag", d.DeliveryTag).Msg("malformed telemetry message")
		c.settle(d.Reject(false))
		return OutcomeMalformed
	}

	_, err := c.ingester.Ingest(ctx, snapshot)
	switch {
	case err == nil:
		c.settle(d.Ack(false))
		return OutcomeIngested
	case errors.Is(err, errors.CodeConflict):
		c.logger.Debug().Str("video_id", snapshot.VideoID).Msg("stale snapshot dropped")
		c.settle(d.Ack(false))
		return OutcomeStale
	case errors.Is(err, errors.CodeInvalidArg):
		c.logger.Warn().Err(err).Str("video_id", snapshot.VideoID).Msg("invalid snapshot rejected")
		c.settle(d.Reject(false))
		return OutcomeInvalid
	default:
		// a redelivered message that fails again is dropped
		c.logger.Error().Err(err).Str("video_id", snapshot.VideoID).Bool("redelivered", d.Redelivered).Msg("failed to ingest snapshot")
		c.settle(d.Nack(false, !d.Redelivered))
		return OutcomeRetry
	}
}

func (c *Consumer) settle(err error) {
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to settle delivery")
	}
}
