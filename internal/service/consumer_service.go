// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/repository/contract"
	"wizzmo-be/internal/repository/memory"
	"wizzmo-be/internal/repository/specification"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService recomputes a mentor's denormalized stats from their
// sessions whenever one is resolved or rated.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.CacheRepository
	feed       IChangeFeed
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.CacheRepository,
	feed IChangeFeed,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		cache:      cache,
		feed:       feed,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.MentorStatsJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("StatsConsumer", "Failed to unmarshal job", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.recompute(ctx, job.MentorId); err != nil {
		cs.logger.Error("StatsConsumer", "Failed to recompute mentor stats", map[string]interface{}{"mentor_id": job.MentorId, "error": err.Error()})
		msg.Nack()
		return
	}
	msg.Ack()
}

func (cs *consumerService) recompute(ctx context.Context, mentorId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	agg, err := uow.AdviceSessionRepository().AggregateForMentor(ctx, mentorId)
	if err != nil {
		return err
	}

	stats := contract.UserStats{
		SessionsResolved: agg.SessionsResolved,
		RatingAverage:    agg.RatingAverage,
		RatingCount:      agg.RatingCount,
	}
	if err := uow.UserRepository().UpdateStats(ctx, mentorId, stats); err != nil {
		return err
	}

	if cs.cache != nil {
		cs.cache.InvalidateProfile(mentorId)
	}

	mentor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: mentorId})
	if err != nil {
		return err
	}
	if mentor != nil {
		cs.feed.Emit(ctx, TopicUsers, events.ChangeUpdate, toUserResponse(mentor, false), nil)
	}

	cs.logger.Info("StatsConsumer", "Mentor stats recomputed", map[string]interface{}{
		"mentor_id":         mentorId,
		"sessions_resolved": stats.SessionsResolved,
		"rating_average":    stats.RatingAverage,
	})
	return nil
}

// enqueueStats asks the consumer to recompute a mentor's stats; failures are only logged.
func enqueueStats(ctx context.Context, publisher IPublisherService, log logger.ILogger, mentorId uuid.UUID) {
	if publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.MentorStatsJob{MentorId: mentorId})
	if err != nil {
		return
	}
	if err := publisher.Publish(ctx, payload); err != nil {
		log.Warn("StatsPublisher", "Failed to enqueue mentor stats job", map[string]interface{}{"mentor_id": mentorId, "error": err.Error()})
	}
}
