package service

import (
	"context"

	"wizzmo-be/internal/pkg/logger"
	internalWS "wizzmo-be/internal/websocket"
	"wizzmo-be/pkg/events"
	pktNats "wizzmo-be/pkg/nats"
)

// Realtime topics, one per table.
const (
	TopicUsers     = "users"
	TopicSessions  = "advice_sessions"
	TopicMessages  = "messages"
	TopicQuestions = "questions"
)

// IChangeFeed announces committed row changes to realtime subscribers.
type IChangeFeed interface {
	Emit(ctx context.Context, table string, typ events.ChangeType, record, old interface{})
}

type changeFeed struct {
	publisher *pktNats.Publisher
	hub       *internalWS.Hub
	logger    logger.ILogger
}

// NewChangeFeed publishes through NATS when available. Without a publisher,
// or when publishing fails, changes go straight to the local hub.
func NewChangeFeed(publisher *pktNats.Publisher, hub *internalWS.Hub, log logger.ILogger) IChangeFeed {
	return &changeFeed{publisher: publisher, hub: hub, logger: log}
}

func (f *changeFeed) Emit(ctx context.Context, table string, typ events.ChangeType, record, old interface{}) {
	change, err := events.NewRowChange(table, typ, record, old)
	if err != nil {
		f.logger.Error("ChangeFeed", "Failed to encode row change", map[string]interface{}{"table": table, "error": err.Error()})
		return
	}

	if f.publisher != nil {
		err := f.publisher.Publish(ctx, change)
		if err == nil {
			return
		}
		f.logger.Warn("ChangeFeed", "NATS publish failed, delivering locally", map[string]interface{}{"subject": pktNats.Subject(change), "error": err.Error()})
	}
	if f.hub != nil {
		f.hub.Publish(ctx, change)
	}
}

// NopChangeFeed drops every change.
type NopChangeFeed struct{}

func (NopChangeFeed) Emit(context.Context, string, events.ChangeType, interface{}, interface{}) {}
