package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// CourseEvent is the payload fanned out to the external notification layer.
type CourseEvent struct {
	Type     string    `json:"type"`
	CourseID uint      `json:"course_id"`
	Section  string    `json:"section,omitempty"`
	EntityID uint      `json:"entity_id,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// EventPublisher announces course mutations to interested consumers. Delivery
// is best-effort: the publisher logs failures and never blocks the mutation.
type EventPublisher interface {
	Publish(event CourseEvent)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewEventPublisher builds a NATS-backed publisher. A nil connection yields a
// publisher that drops events, so callers never need a nil check.
func NewEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = "cams.course.events"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(event CourseEvent) {
	if p.conn == nil {
		return
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to encode course event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish course event")
	}
}
