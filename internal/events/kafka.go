package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeStaffAssigned  = "staff_assigned"
	TypeReportApproved = "report_approved"
)

// WorkflowEvent is published after a successful assignment or approval.
type WorkflowEvent struct {
	EventType    string    `json:"event_type"` // "staff_assigned", "report_approved"
	ManagerID    string    `json:"manager_id"`
	AssignmentID string    `json:"assignment_id,omitempty"`
	BookingID    string    `json:"booking_id,omitempty"`
	ReportID     string    `json:"report_id,omitempty"`
	StaffID      string    `json:"staff_id,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Key routes all events for one booking or report to the same partition.
func (e WorkflowEvent) Key() string {
	if e.AssignmentID != "" {
		return e.AssignmentID
	}
	return e.ReportID
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type EventSender struct {
	writer messageWriter
	topic  string
}

func NewEventSender(brokers []string, topic string) *EventSender {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &EventSender{
		writer: writer,
		topic:  topic,
	}
}

func (s *EventSender) Close() error {
	return s.writer.Close()
}

func (s *EventSender) Publish(ctx context.Context, event WorkflowEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}

	message := kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := s.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.EventType, err)
	}

	return nil
}

// Nop drops events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, WorkflowEvent) error { return nil }
func (Nop) Close() error                                 { return nil }
