package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/voltgrid-charging/service-reservation/pkg/kafka"
)

// ChargerStatusReporter applies hardware fault and recovery reports to
// charger state. *application.ChargerService satisfies it.
type ChargerStatusReporter interface {
	ReportFault(ctx context.Context, id uuid.UUID, errorCode string) error
	ReportRecovery(ctx context.Context, id uuid.UUID) error
}

// StationEventConsumer listens to station gateway events and keeps charger
// operational status in line with the hardware.
type StationEventConsumer struct {
	consumer *kafka.Consumer
	service  ChargerStatusReporter
	logger   *zap.Logger
}

// NewStationEventConsumer creates a new StationEventConsumer.
func NewStationEventConsumer(
	brokers []string,
	groupID string,
	service ChargerStatusReporter,
	logger *zap.Logger,
) *StationEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicStationEvents, logger)
	return &StationEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming station events. This blocks until the context is cancelled.
func (c *StationEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *StationEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *StationEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from station topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case ChargerFaulted:
		return c.handleFaulted(ctx, cloudEvent)
	case ChargerRecovered:
		return c.handleRecovered(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled station event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *StationEventConsumer) handleFaulted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt StationReportEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse StationReportEvent data", zap.Error(err))
		return nil
	}

	if err := c.service.ReportFault(ctx, evt.ChargerID, evt.ErrorCode); err != nil {
		c.logger.Error("failed to apply charger fault",
			zap.String("charger_id", evt.ChargerID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *StationEventConsumer) handleRecovered(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt StationReportEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse StationReportEvent data", zap.Error(err))
		return nil
	}

	if err := c.service.ReportRecovery(ctx, evt.ChargerID); err != nil {
		c.logger.Error("failed to apply charger recovery",
			zap.String("charger_id", evt.ChargerID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
