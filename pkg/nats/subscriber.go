package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cc     jetstream.ConsumeContext
	logger logger.ILogger
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe registers a handler for a subject pattern on a durable consumer,
// so changes published while no instance was listening are still delivered.
func (s *Subscriber) Subscribe(ctx context.Context, subject string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			s.logger.Error("NATS", "Dropping undecodable event", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			msg.Term()
			return
		}

		var event events.Event
		if change, err := events.RowChangeFromPayload(payload); err == nil {
			event = change
		} else {
			event = events.BaseEvent{
				Type: strings.TrimPrefix(msg.Subject(), SubjectPrefix+"."),
				Data: payload,
			}
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Warn("NATS", "Handler failed, will redeliver", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.cc = cc

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{"subject": subject, "durable": durableName})
	return nil
}

// Close stops consuming and closes the connection.
func (s *Subscriber) Close() {
	if s.cc != nil {
		s.cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
