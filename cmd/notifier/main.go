package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"managerconsole/internal/events"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const maxLoggedPayload = 256

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("cannot create logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("cannot load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting console event consumer",
		zap.String("topic", cfg.KafkaTopic),
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("group_id", cfg.KafkaGroupID),
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.KafkaTopic,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Consumer shutting down")
				return
			}
			logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		processMessage(logger, msg)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("Failed to commit message", zap.Error(err))
		}
	}
}

// processMessage logs one workflow event. Undecodable messages are logged
// and skipped so a bad payload never blocks the partition.
func processMessage(logger *zap.Logger, msg kafka.Message) (events.WorkflowEvent, bool) {
	var event events.WorkflowEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Warn("Failed to unmarshal message",
			zap.String("topic", msg.Topic),
			zap.ByteString("value", truncateBytes(msg.Value, maxLoggedPayload)),
			zap.Error(err),
		)
		return events.WorkflowEvent{}, false
	}

	fields := []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.String("event_type", event.EventType),
		zap.String("manager_id", event.ManagerID),
		zap.String("trace_id", event.TraceID),
	}
	switch event.EventType {
	case events.TypeStaffAssigned:
		logger.Info("Staff assigned to booking",
			append(fields,
				zap.String("assignment_id", event.AssignmentID),
				zap.String("booking_id", event.BookingID),
				zap.String("staff_id", event.StaffID),
			)...)
	case events.TypeReportApproved:
		logger.Info("Report approved",
			append(fields,
				zap.String("report_id", event.ReportID),
				zap.String("staff_id", event.StaffID),
			)...)
	default:
		logger.Warn("Unknown event type", fields...)
		return event, false
	}
	return event, true
}

func truncateBytes(data []byte, limit int) []byte {
	if len(data) <= limit {
		return data
	}
	return data[:limit]
}
