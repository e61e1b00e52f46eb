package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/observability"
)

// Domain event names. A configured prefix is prepended to form the NATS subject.
const (
	EventHomeworkAssigned  = "homework.assigned"
	EventHomeworkSubmitted = "homework.submitted"
	EventHomeworkGraded    = "homework.graded"
)

// EventPublisher emits domain events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// HomeworkAssignedEvent is published once a homework and its student records exist.
type HomeworkAssignedEvent struct {
	HomeworkID   uint   `json:"homework_id"`
	TeacherID    uint   `json:"teacher_id"`
	Title        string `json:"title"`
	DueDate      string `json:"duedate"`
	StudentCount int    `json:"student_count"`
}

// HomeworkSubmittedEvent is published for every accepted submission.
type HomeworkSubmittedEvent struct {
	StudentHomeworkID uint      `json:"studenthomeworkid"`
	HomeworkID        uint      `json:"homework_id"`
	StudentID         uint      `json:"student_id"`
	SubmissionID      uint      `json:"submission_id"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

// HomeworkGradedEvent is published when a teacher records a grade.
type HomeworkGradedEvent struct {
	StudentHomeworkID uint   `json:"studenthomeworkid"`
	HomeworkID        uint   `json:"homework_id"`
	StudentID         uint   `json:"student_id"`
	Grade             string `json:"grade"`
}

type eventEnvelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher publishes events on NATS. A nil connection yields a publisher that drops events.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return NopPublisher{}
	}

	return &natsPublisher{
		conn:   conn,
		prefix: strings.Trim(strings.TrimSpace(prefix), "."),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(_ context.Context, event string, payload interface{}) error {
	body, err := json.Marshal(eventEnvelope{
		Type:       event,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	if err != nil {
		return err
	}

	subject := EventSubject(p.prefix, event)
	if err := p.conn.Publish(subject, body); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

// EventSubject joins the optional prefix and the event name.
func EventSubject(prefix, event string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}

func publishEvent(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, event string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event, payload); err != nil {
		observability.EventsPublished().WithLabelValues(event, "failed").Inc()
		logger.Warn().Err(err).Str("event", event).Msg("failed to publish event")
		return
	}
	observability.EventsPublished().WithLabelValues(event, "published").Inc()
}
